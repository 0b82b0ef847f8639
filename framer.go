package bridge

import "encoding/binary"

const (
	// BetweenBytesTimeoutMs bounds how long the framer waits between bytes
	// already known to belong to an in-flight frame.
	BetweenBytesTimeoutMs uint32 = 50
	// WaitAnswerTimeoutMs is the first-byte timeout a client's Exchange uses
	// while waiting for a server's answer.
	WaitAnswerTimeoutMs uint32 = 5000
	// RecoverTimeoutMs is the quiet-bus window Recover waits for.
	RecoverTimeoutMs uint32 = 100
)

/*multiByteRead reads len(out) bytes into out, one at a time. firstByteTimeoutMs
governs out[0]; every subsequent byte uses BetweenBytesTimeoutMs. It reports
whether the failure (if any) happened on the very first byte, so the caller
can apply the corrupted_if_timeout policy: a first-byte timeout is benign,
any later one is corruption.*/
func multiByteRead(bus ByteBus, out []byte, firstByteTimeoutMs uint32) (firstByte bool, result CallbackResult, err error) {
	for i := range out {
		timeout := BetweenBytesTimeoutMs
		if i == 0 {
			timeout = firstByteTimeoutMs
		}
		b, res, e := bus.ReadByte(timeout)
		if res != CallbackSuccess {
			return i == 0, res, e
		}
		out[i] = b
	}
	return false, CallbackSuccess, nil
}

/*callbackToProtocolResult maps a multiByteRead outcome to the six-way
ProtocolResult taxonomy. A timeout on the first byte of the group is
Timeout only when corruptedIfTimeout is false (i.e. this group IS the start
of a new frame); in every other case a timeout means Corrupted.*/
func callbackToProtocolResult(firstByte bool, res CallbackResult, corruptedIfTimeout bool) ProtocolResult {
	switch res {
	case CallbackSuccess:
		return ResultSuccess
	case CallbackIOError:
		return ResultIOError
	case CallbackReadTimeout:
		if firstByte && !corruptedIfTimeout {
			return ResultTimeout
		}
		return ResultCorrupted
	default:
		return ResultCorrupted
	}
}

// encodeFrameHeader writes the wire-order payload_size||type pair into
// buf[0:6]; the CRC is computed over these bytes followed by the payload.
func encodeFrameHeader(buf []byte, payloadSize uint16, frameType uint32) {
	binary.LittleEndian.PutUint16(buf[0:2], payloadSize)
	binary.LittleEndian.PutUint32(buf[2:6], frameType)
}

/*writeFrame serializes payload_size||type||payload||crc and writes it to
bus in a single call, per the write path: payload_size (2B), type (4B),
payload (payload_size B), crc (2B), computed over everything before it.*/
func writeFrame(bus ByteBus, frameType uint32, payload []byte) error {
	head := make([]byte, 6)
	encodeFrameHeader(head, uint16(len(payload)), frameType)

	crc := checksumOf(head, payload)
	tail := make([]byte, 2)
	binary.LittleEndian.PutUint16(tail, crc)

	frame := make([]byte, 0, len(head)+len(payload)+len(tail))
	frame = append(frame, head...)
	frame = append(frame, payload...)
	frame = append(frame, tail...)

	if res, err := bus.WriteBytes(frame); res != CallbackSuccess {
		return newProtocolError(ResultIOError, err)
	}
	return nil
}

// decodedFrame is a frame as read off the bus, before type-specific interpretation.
type decodedFrame struct {
	payloadSize uint16
	frameType   uint32
	payload     []byte
}

/*readFrame implements the read path common to both requests and answers:
size, type, catalog size-check, payload, and CRC verification. expectedSize
is looked up by the caller (via the catalog) once frameType is known.
firstByteTimeoutMs governs the first byte of payload_size only; every other
timeout in this call is Corrupted, per the edge policy that Timeout can
only ever come from step 1's first byte.*/
func readFrame(bus ByteBus, firstByteTimeoutMs uint32, expectedSize func(frameType uint32) uint16) (decodedFrame, error) {
	sizeBuf := make([]byte, 2)
	firstByte, res, err := multiByteRead(bus, sizeBuf, firstByteTimeoutMs)
	if result := callbackToProtocolResult(firstByte, res, false); result != ResultSuccess {
		return decodedFrame{}, newProtocolError(result, err)
	}
	payloadSize := binary.LittleEndian.Uint16(sizeBuf)

	typeBuf := make([]byte, 4)
	firstByte, res, err = multiByteRead(bus, typeBuf, BetweenBytesTimeoutMs)
	if result := callbackToProtocolResult(firstByte, res, true); result != ResultSuccess {
		return decodedFrame{}, newProtocolError(result, err)
	}
	frameType := binary.LittleEndian.Uint32(typeBuf)

	if expectedSize(frameType) != payloadSize {
		return decodedFrame{}, newProtocolError(ResultCorrupted, errSizeMismatch)
	}

	payload := make([]byte, payloadSize)
	if payloadSize > 0 {
		firstByte, res, err = multiByteRead(bus, payload, BetweenBytesTimeoutMs)
		if result := callbackToProtocolResult(firstByte, res, true); result != ResultSuccess {
			return decodedFrame{}, newProtocolError(result, err)
		}
	}

	crcBuf := make([]byte, 2)
	firstByte, res, err = multiByteRead(bus, crcBuf, BetweenBytesTimeoutMs)
	if result := callbackToProtocolResult(firstByte, res, true); result != ResultSuccess {
		return decodedFrame{}, newProtocolError(result, err)
	}
	wireCRC := binary.LittleEndian.Uint16(crcBuf)

	head := make([]byte, 6)
	encodeFrameHeader(head, payloadSize, frameType)
	if computed := checksumOf(head, payload); computed != wireCRC {
		return decodedFrame{}, newProtocolError(ResultCorrupted, errChecksumMismatch)
	}

	return decodedFrame{payloadSize: payloadSize, frameType: frameType, payload: payload}, nil
}

/*writeRequestFrame writes req to bus. The catalog is consulted only to the
extent that the caller already built req.Payload to the right size - the
write path performs no catalog lookups of its own.*/
func writeRequestFrame(bus ByteBus, req Request) error {
	return writeFrame(bus, uint32(req.Type), req.Payload)
}

//writeAnswerFrame writes ans to bus.
func writeAnswerFrame(bus ByteBus, ans Answer) error {
	return writeFrame(bus, uint32(ans.Type), ans.Payload)
}

/*readRequestFrame reads a Request off bus. Per the request-read variant of
the read path, any frame with a valid size/CRC decodes to Success
regardless of its type value - the dispatcher is responsible for rejecting
types the catalog doesn't recognize.*/
func readRequestFrame(bus ByteBus, firstByteTimeoutMs uint32, catalog Catalog) (Request, error) {
	frame, err := readFrame(bus, firstByteTimeoutMs, func(t uint32) uint16 {
		return catalog.RequestPayloadSize(RequestType(t))
	})
	if err != nil {
		return Request{}, err
	}
	return Request{Type: RequestType(frame.frameType), Payload: frame.payload}, nil
}

/*readAnswerFrame reads an Answer off bus for a request of requestType.
Unlike the request variant, the decoded frameType here selects the protocol
result directly: REQUEST_REJECTED and WRONG_REQUEST_ARGUMENTS are reported
as such rather than folded into Success.*/
func readAnswerFrame(bus ByteBus, firstByteTimeoutMs uint32, catalog Catalog, requestType RequestType) (Answer, error) {
	frame, err := readFrame(bus, firstByteTimeoutMs, func(t uint32) uint16 {
		return catalog.AnswerPayloadSize(requestType, AnswerType(t))
	})
	if err != nil {
		return Answer{}, err
	}
	answerType := AnswerType(frame.frameType)
	ans := Answer{Type: answerType, Payload: frame.payload}
	switch answerType {
	case AnswerRequestRejected:
		return ans, newProtocolError(ResultRequestRejected, nil)
	case AnswerWrongRequestArguments:
		return ans, newProtocolError(ResultWrongRequestArguments, nil)
	default:
		return ans, nil
	}
}
