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
	"flag"
	"fmt"
	"testing"
	"time"
)

var serialPort = flag.String("serial-port", "", "serial port to use as a loopback test")

func TestNewSerialBus_BadDial(t *testing.T) {
	if _, err := NewByteBus("bad hair day"); err == nil {
		t.Error("bad dial string should fail")
	}
	if _, err := NewSerialBus("tcp://bad-hair-day:9600"); err == nil {
		t.Error("non-serial dial string should be rejected by NewSerialBus")
	}
	if _, err := NewSerialBus("serial://dev:not-a-number"); err == nil {
		t.Error("non-numeric baud rate should fail")
	}
}

func TestSerialBus_String(t *testing.T) {
	sb, err := NewSerialBus("serial:///dev/ttyUSB0:115200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sb.String(); got == "" {
		t.Error("String() should not be empty")
	}
}

/*TestSerialBusLoopback exercises a real serial loopback (e.g. a USB-UART
with TX/RX shorted). It is skipped unless -serial-port is supplied, the
same gate a hardware-backed loopback test needs.*/
func TestSerialBusLoopback(t *testing.T) {
	if *serialPort == "" {
		t.Skip("no serial port defined for loopback tests - skipping")
	}
	dial := fmt.Sprintf("serial://%s:57600", *serialPort)

	bus, err := NewByteBus(dial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bus.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer bus.Close()

	msg := []byte("a dead cow sings the blues")
	if res, err := bus.WriteBytes(msg); err != nil || res != CallbackSuccess {
		t.Fatalf("write: result=%v err=%v", res, err)
	}

	<-time.After(time.Duration(len(msg)*1000/57600) * time.Millisecond)

	for _, want := range msg {
		got, res, err := bus.ReadByte(1000)
		if err != nil || res != CallbackSuccess {
			t.Fatalf("read: result=%v err=%v", res, err)
		}
		if got != want {
			t.Fatalf("read byte = %q, want %q", got, want)
		}
	}
}
