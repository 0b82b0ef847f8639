package bridge

/*types.go models the protocol's tagged unions: Request and Answer. Go has
no native sum type, so - per this package's wire invariant that payload_size
is prefixed and independently validated rather than inferred from the
variant - Request and Answer carry their Type plus a raw, already
size-validated Payload, with typed constructors/accessors layered on top for
the built-in request types. A host adding its own request types follows the
same shape: a constructor that encodes into Payload, and an accessor that
decodes out of it.*/

import "encoding/binary"

// RequestType identifies what a Request is asking for. Zero (RequestUndefined)
// is never transmitted; it is returned by APIs that need a "no request" value.
type RequestType uint32

const (
	// RequestUndefined is the sentinel "no request" value. Never sent on the wire.
	RequestUndefined RequestType = 0
	// RequestMatchProtocolVersion is the built-in version handshake request.
	RequestMatchProtocolVersion RequestType = 1
	// RequestGetDeviceInfo is the built-in device identification request.
	RequestGetDeviceInfo RequestType = 2
)

func (t RequestType) String() string {
	switch t {
	case RequestUndefined:
		return "UNDEFINED"
	case RequestMatchProtocolVersion:
		return "MATCH_PROTOCOL_VERSION"
	case RequestGetDeviceInfo:
		return "GET_DEVICE_INFO"
	default:
		return "CUSTOM"
	}
}

// AnswerType identifies how a server responded to a request.
type AnswerType uint32

const (
	// AnswerSuccess means the request was honored; Payload shape is determined
	// by the request type.
	AnswerSuccess AnswerType = 0
	// AnswerRequestRejected means server state disallows the request. Payload is empty.
	AnswerRequestRejected AnswerType = 1
	// AnswerWrongRequestArguments means the request's arguments were invalid. Payload is empty.
	AnswerWrongRequestArguments AnswerType = 2
)

func (t AnswerType) String() string {
	switch t {
	case AnswerSuccess:
		return "SUCCESS"
	case AnswerRequestRejected:
		return "REQUEST_REJECTED"
	case AnswerWrongRequestArguments:
		return "WRONG_REQUEST_ARGUMENTS"
	default:
		return "UNKNOWN"
	}
}

// ProtocolVersion is the compile-time protocol version this package
// implements and answers MATCH_PROTOCOL_VERSION requests with.
const ProtocolVersion uint16 = 1

// Request is the on-wire unit a client sends. Payload is the already
// size-validated, little-endian-encoded argument bytes for Type; for
// RequestGetDeviceInfo (and any zero-argument custom type) it is empty.
type Request struct {
	Type    RequestType
	Payload []byte
}

// Answer is the on-wire unit a server sends back. Payload is empty unless
// Type is AnswerSuccess, in which case its shape is determined by the
// request type that produced it.
type Answer struct {
	Type    AnswerType
	Payload []byte
}

// DeviceInfo is the built-in GET_DEVICE_INFO success-answer payload.
type DeviceInfo struct {
	HardwareVersion uint32
	FirmwareVersion uint32
}

// NewMatchProtocolVersionRequest builds a MATCH_PROTOCOL_VERSION request
// carrying this package's ProtocolVersion.
func NewMatchProtocolVersionRequest() Request {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, ProtocolVersion)
	return Request{Type: RequestMatchProtocolVersion, Payload: payload}
}

// NewGetDeviceInfoRequest builds a GET_DEVICE_INFO request. It carries no payload.
func NewGetDeviceInfoRequest() Request {
	return Request{Type: RequestGetDeviceInfo}
}

// ProtocolVersion decodes the protocol_version field out of a successful
// MATCH_PROTOCOL_VERSION answer.
func (a Answer) ProtocolVersion() (uint16, error) {
	if len(a.Payload) < 2 {
		return 0, errShortPayload
	}
	return binary.LittleEndian.Uint16(a.Payload), nil
}

// DeviceInfo decodes the hardware_version/firmware_version fields out of a
// successful GET_DEVICE_INFO answer.
func (a Answer) DeviceInfo() (DeviceInfo, error) {
	if len(a.Payload) < 8 {
		return DeviceInfo{}, errShortPayload
	}
	return DeviceInfo{
		HardwareVersion: binary.LittleEndian.Uint32(a.Payload[0:4]),
		FirmwareVersion: binary.LittleEndian.Uint32(a.Payload[4:8]),
	}, nil
}

// encodeDeviceInfo little-endian encodes info into an 8-byte payload,
// hardware_version first, then firmware_version, matching the 8-byte size
// the catalog declares for GET_DEVICE_INFO's success answer.
func encodeDeviceInfo(info DeviceInfo) []byte {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], info.HardwareVersion)
	binary.LittleEndian.PutUint32(payload[4:8], info.FirmwareVersion)
	return payload
}
