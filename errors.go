package bridge

import (
	"net"

	"github.com/pkg/errors"
)

// CallbackResult is what a ByteBus callback reports back about a single
// read or write attempt.
type CallbackResult int

const (
	// CallbackSuccess means the requested bytes were read or written.
	CallbackSuccess CallbackResult = iota
	// CallbackReadTimeout means a read callback's timeout elapsed with no byte received.
	CallbackReadTimeout
	// CallbackIOError means the underlying transport reported a hard failure.
	CallbackIOError
)

func (c CallbackResult) String() string {
	switch c {
	case CallbackSuccess:
		return "Success"
	case CallbackReadTimeout:
		return "ReadTimeout"
	case CallbackIOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// ProtocolResult classifies the outcome of a protocol-level operation.
type ProtocolResult int

const (
	// ResultSuccess means the operation completed with meaning.
	ResultSuccess ProtocolResult = iota
	// ResultTimeout means an expected event did not occur within budget. Safe to retry.
	ResultTimeout
	// ResultCorrupted means a partial frame, size/type disagreement, or checksum
	// mismatch was detected. The caller must call Recover before using the bus again.
	ResultCorrupted
	// ResultRequestRejected means the server's state disallowed the request.
	ResultRequestRejected
	// ResultWrongRequestArguments means the server rejected the request's arguments.
	ResultWrongRequestArguments
	// ResultIOError means the callback reported a hard failure. Terminal for the session.
	ResultIOError
)

func (r ProtocolResult) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultTimeout:
		return "Timeout"
	case ResultCorrupted:
		return "Corrupted"
	case ResultRequestRejected:
		return "RequestRejected"
	case ResultWrongRequestArguments:
		return "WrongRequestArguments"
	case ResultIOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

var _ error = &ProtocolError{}
var _ net.Error = &ProtocolError{}

// ProtocolError is the error type every exported operation in this package
// returns. It conforms to net.Error so callers already familiar with that
// idiom (Timeout()/Temporary()) get it for free; Result carries the finer
// six-way classification the protocol actually needs.
type ProtocolError struct {
	Result ProtocolResult
	cause  error
}

// newProtocolError returns a *ProtocolError, wrapping cause (which may be nil).
func newProtocolError(result ProtocolResult, cause error) *ProtocolError {
	return &ProtocolError{Result: result, cause: cause}
}

/*Error returns the base error as a string, and conforms to the error interface */
func (e *ProtocolError) Error() string {
	if e.cause != nil {
		return errors.Wrapf(e.cause, "bridge: %v", e.Result).Error()
	}
	return "bridge: " + e.Result.String()
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *ProtocolError) Unwrap() error {
	return e.cause
}

/*Timeout return true if the error is a benign, retryable timeout*/
func (e *ProtocolError) Timeout() bool {
	return e.Result == ResultTimeout
}

/*Temporary return true if the bus is still usable after this error - true
for Timeout and Corrupted (the latter requires Recover first), false for
IOError and the rejection variants*/
func (e *ProtocolError) Temporary() bool {
	return e.Result == ResultTimeout || e.Result == ResultCorrupted
}

// ResultOf returns the ProtocolResult carried by err, or ResultSuccess if
// err is nil or not a *ProtocolError.
func ResultOf(err error) ProtocolResult {
	if err == nil {
		return ResultSuccess
	}
	if pe, ok := err.(*ProtocolError); ok {
		return pe.Result
	}
	return ResultSuccess
}

/*IsTimeout is a shorthand way to check if a returned error is a Timeout. Dont
pass nil errors here, the desired behaviour is not defined, and will panic*/
func IsTimeout(err error) bool {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	return ResultOf(err) == ResultTimeout
}

/*IsTemporary is a shorthand way to check if a returned error is temporary. Dont
pass nil errors here, the desired behaviour is not defined, and will panic*/
func IsTemporary(err error) bool {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Temporary()
	}
	return false
}

/*IsCorrupted is a shorthand way to check if a returned error is Corrupted. Dont
pass nil errors here, the desired behaviour is not defined, and will panic*/
func IsCorrupted(err error) bool {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	return ResultOf(err) == ResultCorrupted
}

/*IsIOError is a shorthand way to check if a returned error is an IOError. Dont
pass nil errors here, the desired behaviour is not defined, and will panic*/
func IsIOError(err error) bool {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	return ResultOf(err) == ResultIOError
}

/*IsRequestRejected is a shorthand way to check if a returned error is
RequestRejected. Dont pass nil errors here, the desired behaviour is not
defined, and will panic*/
func IsRequestRejected(err error) bool {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	return ResultOf(err) == ResultRequestRejected
}

/*IsWrongRequestArguments is a shorthand way to check if a returned error is
WrongRequestArguments. Dont pass nil errors here, the desired behaviour is
not defined, and will panic*/
func IsWrongRequestArguments(err error) bool {
	if err == nil {
		panic("Unable to determine what to do with a nil error.")
	}
	return ResultOf(err) == ResultWrongRequestArguments
}

var (
	// errSizeMismatch is wrapped into a Corrupted ProtocolError when the
	// wire payload_size disagrees with what the catalog expects for the
	// decoded type.
	errSizeMismatch = errors.New("payload size does not match catalog entry for this type")

	// errChecksumMismatch is wrapped into a Corrupted ProtocolError when the
	// trailing CRC does not match the recomputed one.
	errChecksumMismatch = errors.New("checksum mismatch")

	// errShortPayload is returned by an Answer's typed accessors when the
	// payload is too small for the field being decoded.
	errShortPayload = errors.New("answer payload too short for requested field")
)
