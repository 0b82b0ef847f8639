/*
Package bridge implements the Bridge Protocol: a symmetric, byte-stream,
request/response framing protocol for two devices talking over an
unreliable serial bus. One peer is the client (it originates requests via
Session.Exchange), the other is the server (it answers via
Session.ReadRequest and the Session.Answer* helpers).

# Purpose

The bus underneath delivers bytes one at a time, gives no framing for free,
and may lose, duplicate, or corrupt bytes. This package supplies the framing
(size-prefixed, typed, checksummed frames), the read/write state machine,
and the recovery procedure used to resynchronize after a corrupted frame. It
says nothing about what requests exist beyond the two built-ins
(MATCH_PROTOCOL_VERSION, GET_DEVICE_INFO) - the Catalog type lets a host
register its own request/answer shapes.

# Transport

The package is agnostic to the physical bus: it consumes a ByteBus, a small
interface around one-byte blocking reads (with a caller-chosen timeout) and
arbitrary-length blocking writes. SerialBus implements it over a UART via
go.bug.st/serial; NetBus implements it over a TCP connection, useful for
development and tests without real hardware. NewByteBus dispatches between
them from a dial string.

# Errors

Every Session operation, and Recover, returns a *ProtocolError (or nil) classifying the outcome as
one of Success, Timeout, Corrupted, RequestRejected, WrongRequestArguments,
or IOError. Timeout means an expected event (first byte of a new frame, or a
quiet recovery window) did not happen within budget and is safe to retry.
Corrupted means a partial frame, a size/type disagreement, or a checksum
mismatch was seen, and the caller must call Recover before using the bus
again. IOError is terminal for the session - it means the underlying
transport, not the protocol, is broken.

# Concurrency

A Session serializes access to its ByteBus with a mutex: callers may drive
Exchange, ReadRequest, the Answer* helpers and Recover from multiple goroutines, but only one
exchange is ever in flight on the wire at a time, matching the protocol's
half-duplex request/response ordering.
*/
package bridge
