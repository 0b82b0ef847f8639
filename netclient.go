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
	"net"
	"regexp"
	"sync"
	"time"
)

var _ ByteBus = &NetBus{}
var netBusRe = regexp.MustCompile(`^(tcp|tcp4|tcp6):\/\/(.*:[0-9]+)$`)

/*NewNetBus builds (but does not Open) a NetBus dialing a remote host.
Dial must be in the form "tcp[46]://<host>:<port>". NetBus exists for
development and test use, standing in for a bus a real bridge would carry
over serial - the exchanged bytes and framing are identical either way.*/
func NewNetBus(dial string) (*NetBus, error) {
	matches := netBusRe.FindStringSubmatch(dial)
	if matches == nil {
		return nil, fmt.Errorf("dial string not in correct form")
	}
	return &NetBus{network: matches[1], address: matches[2]}, nil
}

/*NewNetBusFromConn wraps an already-established net.Conn (e.g. one handed
to a server by net.Listener.Accept) as a ByteBus. Open is then a no-op.*/
func NewNetBusFromConn(conn net.Conn) *NetBus {
	return &NetBus{conn: conn, owned: false}
}

/*NetBus is a ByteBus backed by a net.Conn stream, one read deadline
extension per ReadByte call so the first-byte/inter-byte timeout
distinction the framer depends on is enforced at the transport, not
buffered away by it.*/
type NetBus struct {
	network, address string
	owned            bool

	mu   sync.Mutex
	conn net.Conn
}

//String implements fmt.Stringer.
func (nb *NetBus) String() string {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.conn != nil {
		return fmt.Sprintf("%s connection to %s", nb.network, nb.conn.RemoteAddr())
	}
	return fmt.Sprintf("%s connection to %s", nb.network, nb.address)
}

/*Open dials the configured address. If NetBus was built from an existing
net.Conn via NewNetBusFromConn, Open is a no-op.*/
func (nb *NetBus) Open() error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.conn != nil && !nb.owned {
		return nil
	}
	if nb.conn != nil {
		nb.conn.Close()
		nb.conn = nil
	}
	conn, err := net.Dial(nb.network, nb.address)
	if err != nil {
		return newProtocolError(ResultIOError, err)
	}
	nb.conn = conn
	nb.owned = true
	return nil
}

//Close closes the underlying connection.
func (nb *NetBus) Close() error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.conn == nil {
		return nil
	}
	err := nb.conn.Close()
	nb.conn = nil
	if err != nil {
		return newProtocolError(ResultIOError, err)
	}
	return nil
}

/*WriteBytes writes every byte of data with no deadline - writes are not
subject to the protocol's read timeout semantics.*/
func (nb *NetBus) WriteBytes(data []byte) (CallbackResult, error) {
	nb.mu.Lock()
	conn := nb.conn
	nb.mu.Unlock()
	if conn == nil {
		return CallbackIOError, newProtocolError(ResultIOError, fmt.Errorf("connection not open"))
	}
	n, err := conn.Write(data)
	if err != nil {
		return CallbackIOError, newProtocolError(ResultIOError, err)
	}
	if n != len(data) {
		return CallbackIOError, newProtocolError(ResultIOError, fmt.Errorf("short write: %d of %d bytes", n, len(data)))
	}
	return CallbackSuccess, nil
}

/*ReadByte blocks for up to timeoutMs waiting for one byte, via a fresh
SetReadDeadline per call. A net.Error with Timeout()==true is reported as
CallbackReadTimeout; any other error is CallbackIOError.*/
func (nb *NetBus) ReadByte(timeoutMs uint32) (byte, CallbackResult, error) {
	nb.mu.Lock()
	conn := nb.conn
	nb.mu.Unlock()
	if conn == nil {
		return 0, CallbackIOError, newProtocolError(ResultIOError, fmt.Errorf("connection not open"))
	}

	if timeoutMs == WaitForever {
		conn.SetReadDeadline(time.Time{})
	} else {
		conn.SetReadDeadline(time.Now().Add(time.Duration(timeoutMs) * time.Millisecond))
	}

	buf := make([]byte, 1)
	n, err := conn.Read(buf)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return 0, CallbackReadTimeout, nil
		}
		return 0, CallbackIOError, newProtocolError(ResultIOError, err)
	}
	if n == 0 {
		return 0, CallbackReadTimeout, nil
	}
	return buf[0], CallbackSuccess, nil
}
