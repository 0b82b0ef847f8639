/*
MIT License

Copyright (c) 2015-2017 University Corporation for Atmospheric Research

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package bridge

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"go.bug.st/serial"
)

var _ ByteBus = &SerialBus{}
var serialRe = regexp.MustCompile(`^serial://([^:]*):([0-9]*)$`)

/*NewSerialBus builds (but does not Open) a SerialBus for an 8N1 UART.
Dial must be in the form "serial://<device>:<baud>", e.g.
"serial:///dev/ttyUSB0:115200".*/
func NewSerialBus(dial string) (*SerialBus, error) {
	if !serialRe.MatchString(dial) {
		return nil, fmt.Errorf("dial string not in correct form")
	}
	matches := serialRe.FindStringSubmatch(dial)
	baud, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid baud rate %q: %w", matches[2], err)
	}
	return &SerialBus{
		device: matches[1],
		baud:   baud,
		mode: &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}, nil
}

/*SerialBus is a ByteBus backed by a physical or virtual UART, via
go.bug.st/serial. Every ReadByte call installs a fresh read timeout before
reading - go.bug.st/serial's SetReadTimeout applies to the port as a whole,
so this package holds a mutex around it to keep concurrent callers (there
should be none in normal use, but tests may probe this) from racing on the
shared timeout.*/
type SerialBus struct {
	device string
	baud   int
	mode   *serial.Mode

	mu   sync.Mutex
	port serial.Port
}

//String implements fmt.Stringer.
func (sb *SerialBus) String() string {
	return fmt.Sprintf("serial connection to %s:%d 8N1", sb.device, sb.baud)
}

/*Open closes any previously open port (ignoring errors) and dials the
configured device fresh.*/
func (sb *SerialBus) Open() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.port != nil {
		sb.port.Close()
		sb.port = nil
	}
	port, err := serial.Open(sb.device, sb.mode)
	if err != nil {
		return newProtocolError(ResultIOError, err)
	}
	sb.port = port
	return nil
}

//Close releases the underlying port.
func (sb *SerialBus) Close() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.port == nil {
		return nil
	}
	err := sb.port.Close()
	sb.port = nil
	if err != nil {
		return newProtocolError(ResultIOError, err)
	}
	return nil
}

/*WriteBytes writes every byte of data to the port. A short write without
an error is treated as an IO error: the write callback contract requires
all-or-nothing writes.*/
func (sb *SerialBus) WriteBytes(data []byte) (CallbackResult, error) {
	sb.mu.Lock()
	port := sb.port
	sb.mu.Unlock()
	if port == nil {
		return CallbackIOError, newProtocolError(ResultIOError, fmt.Errorf("serial port not open"))
	}
	n, err := port.Write(data)
	if err != nil {
		return CallbackIOError, newProtocolError(ResultIOError, err)
	}
	if n != len(data) {
		return CallbackIOError, newProtocolError(ResultIOError, fmt.Errorf("short write: %d of %d bytes", n, len(data)))
	}
	return CallbackSuccess, nil
}

/*ReadByte blocks for up to timeoutMs waiting for one byte. A read that
returns zero bytes with no error is go.bug.st/serial's timeout signal and
is reported as CallbackReadTimeout, leaving it to the caller (the framer)
to decide whether that timeout is benign or fatal at this point in a frame.*/
func (sb *SerialBus) ReadByte(timeoutMs uint32) (byte, CallbackResult, error) {
	sb.mu.Lock()
	port := sb.port
	if port == nil {
		sb.mu.Unlock()
		return 0, CallbackIOError, newProtocolError(ResultIOError, fmt.Errorf("serial port not open"))
	}
	var err error
	if timeoutMs == WaitForever {
		err = port.SetReadTimeout(serial.NoTimeout)
	} else {
		err = port.SetReadTimeout(time.Duration(timeoutMs) * time.Millisecond)
	}
	if err != nil {
		sb.mu.Unlock()
		return 0, CallbackIOError, newProtocolError(ResultIOError, err)
	}
	sb.mu.Unlock()

	buf := make([]byte, 1)
	n, err := port.Read(buf)
	if err != nil {
		return 0, CallbackIOError, newProtocolError(ResultIOError, err)
	}
	if n == 0 {
		return 0, CallbackReadTimeout, nil
	}
	return buf[0], CallbackSuccess, nil
}
