package bridge

import (
	"fmt"
	"math"
	"regexp"
)

// WaitForever, passed as a timeout, means "block until a byte arrives, with
// no time limit". It is the Go-side stand-in for the original protocol's
// UINT32_MAX sentinel.
const WaitForever uint32 = math.MaxUint32

/*ByteBus is the capability the protocol core needs from a physical bus
driver: an arbitrary-length blocking write and a one-byte blocking read with
a caller-supplied timeout. It deliberately does not embed io.ReadWriter -
the framer's correctness depends on reading exactly one byte at a time so it
can apply a different timeout to the first byte of a group than to the
rest; any implementation that buffers ahead of this interface must not
silently swallow that distinction.

Any ByteBus should also be able to tell others in human readable string
form what the transport actually is (fmt.Stringer), and should be able to
Open and Close the device.*/
type ByteBus interface {
	fmt.Stringer
	Open() error
	Close() error

	// WriteBytes writes every byte of data or fails with CallbackIOError.
	WriteBytes(data []byte) (CallbackResult, error)

	// ReadByte blocks for up to timeoutMs (WaitForever for no limit) waiting
	// for exactly one byte.
	ReadByte(timeoutMs uint32) (byte, CallbackResult, error)
}

var busKinds = map[*regexp.Regexp]func(dial string) (ByteBus, error){
	serialRe: func(dial string) (ByteBus, error) { return NewSerialBus(dial) },
	netBusRe: func(dial string) (ByteBus, error) { return NewNetBus(dial) },
}

/*NewByteBus returns a ByteBus for the given dial string, dispatching on its
schema:

	serial://<device>:<baud> - a UART, via SerialBus
	tcp://<host>:<port>      - a TCP connection, via NetBus (dev/test use)

The returned bus is not yet Open.*/
func NewByteBus(dial string) (ByteBus, error) {
	for re, ctor := range busKinds {
		if re.MatchString(dial) {
			return ctor(dial)
		}
	}
	return nil, newProtocolError(ResultIOError, fmt.Errorf("no known bus kind for dial string %q", dial))
}
