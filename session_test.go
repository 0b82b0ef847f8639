package bridge

import (
	"context"
	"testing"
)

func pairedSessions() (client, server *Session, clientBus, serverBus *fakeBus) {
	clientBus, serverBus = newFakeBus(), newFakeBus()
	client = NewSession(clientBus, NewCatalog())
	server = NewSession(serverBus, NewCatalog())
	return
}

// feed wires the bytes one side wrote into the other side's read queue -
// a loopback stand-in for a real shared bus, since fakeBus is write-only
// on one end and scripted-read on the other.
func feed(from *fakeBus, to *fakeBus) {
	to.queueBytes(from.written)
	from.written = nil
}

func TestSessionMatchProtocolVersion(t *testing.T) {
	client, server, clientBus, serverBus := pairedSessions()
	_ = client

	if err := writeRequestFrame(clientBus, NewMatchProtocolVersionRequest()); err != nil {
		t.Fatalf("write request: %v", err)
	}
	feed(clientBus, serverBus)

	req, outcome, err := server.Process(WaitForever)
	if err != nil {
		t.Fatalf("server Process: %v", err)
	}
	if outcome != RequestReceived || req.Type != RequestMatchProtocolVersion {
		t.Fatalf("outcome=%v req=%+v", outcome, req)
	}

	if err := server.AnswerMatchProtocolVersion(); err != nil {
		t.Fatalf("answer: %v", err)
	}
	feed(serverBus, clientBus)

	ans, err := readAnswerFrame(clientBus, WaitAnswerTimeoutMs, NewCatalog(), RequestMatchProtocolVersion)
	if err != nil {
		t.Fatalf("read answer: %v", err)
	}
	version, err := ans.ProtocolVersion()
	if err != nil || version != ProtocolVersion {
		t.Fatalf("version=%d err=%v", version, err)
	}
}

func TestSessionGetDeviceInfo(t *testing.T) {
	client, server, clientBus, serverBus := pairedSessions()
	_ = client

	if err := writeRequestFrame(clientBus, NewGetDeviceInfoRequest()); err != nil {
		t.Fatalf("write: %v", err)
	}
	feed(clientBus, serverBus)

	req, outcome, err := server.Process(WaitForever)
	if err != nil || outcome != RequestReceived || req.Type != RequestGetDeviceInfo {
		t.Fatalf("outcome=%v req=%+v err=%v", outcome, req, err)
	}

	info := DeviceInfo{HardwareVersion: 3, FirmwareVersion: 7}
	if err := server.AnswerGetDeviceInfo(info); err != nil {
		t.Fatalf("answer: %v", err)
	}
	feed(serverBus, clientBus)

	ans, err := readAnswerFrame(clientBus, WaitAnswerTimeoutMs, NewCatalog(), RequestGetDeviceInfo)
	if err != nil {
		t.Fatalf("read answer: %v", err)
	}
	got, err := ans.DeviceInfo()
	if err != nil || got != info {
		t.Fatalf("got=%+v err=%v", got, err)
	}
}

func TestSessionStateTransitionsOnCorruption(t *testing.T) {
	_, server, _, serverBus := pairedSessions()

	wire := buildFrameBytes(uint32(RequestGetDeviceInfo), nil)
	wire[len(wire)-1] ^= 0xFF
	serverBus.queueBytes(wire)

	_, err := server.ReadRequest(WaitForever)
	if !IsCorrupted(err) {
		t.Fatalf("expected Corrupted, got %v", err)
	}
	if server.State() != StateSuspected {
		t.Fatalf("state = %v, want Suspected", server.State())
	}

	serverBus.queueTimeout()
	if err := server.Recover(1000); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if server.State() != StateSynchronized {
		t.Fatalf("state = %v, want Synchronized", server.State())
	}
}

func TestSessionProcessUnknownTypeRunsRecovery(t *testing.T) {
	_, server, _, serverBus := pairedSessions()

	const custom RequestType = 0xBEEF
	serverBus.queueBytes(buildFrameBytes(uint32(custom), nil))
	serverBus.queueTimeout() // satisfies the Recover probe Process triggers

	req, outcome, err := server.Process(WaitForever)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != UnknownRequestRecovered {
		t.Fatalf("outcome = %v, want UnknownRequestRecovered", outcome)
	}
	if req.Type != RequestUndefined || req.Payload != nil {
		t.Fatalf("request should be zero value, got %+v", req)
	}
}

func TestSessionProcessCorruptedFrameRunsRecoveryAndContinues(t *testing.T) {
	_, server, _, serverBus := pairedSessions()

	wire := buildFrameBytes(uint32(RequestGetDeviceInfo), nil)
	wire[len(wire)-1] ^= 0xFF // flip the CRC so the read comes back Corrupted
	serverBus.queueBytes(wire)
	serverBus.queueTimeout() // satisfies the Recover probe Process triggers

	req, outcome, err := server.Process(WaitForever)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != NoRequest {
		t.Fatalf("outcome = %v, want NoRequest", outcome)
	}
	if req.Type != RequestUndefined || req.Payload != nil {
		t.Fatalf("request should be zero value, got %+v", req)
	}
	if server.State() != StateSynchronized {
		t.Fatalf("state = %v, want Synchronized after recovery", server.State())
	}
}

func TestSessionProcessCorruptedFrameFatalOnIOError(t *testing.T) {
	_, server, _, serverBus := pairedSessions()

	wire := buildFrameBytes(uint32(RequestGetDeviceInfo), nil)
	wire[len(wire)-1] ^= 0xFF
	serverBus.queueBytes(wire)
	serverBus.queueIOError(errChecksumMismatch) // the Recover probe itself hard-fails

	_, outcome, err := server.Process(WaitForever)
	if !IsIOError(err) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if outcome != NoRequest {
		t.Fatalf("outcome = %v, want NoRequest", outcome)
	}
}

func TestSessionProcessNoRequestOnTimeout(t *testing.T) {
	_, server, _, serverBus := pairedSessions()
	serverBus.queueTimeout()

	_, outcome, err := server.Process(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != NoRequest {
		t.Fatalf("outcome = %v, want NoRequest", outcome)
	}
}

func TestSessionCheckCompatibilityRejectsWrongVersion(t *testing.T) {
	clientBus := newFakeBus()
	client := NewSession(clientBus, NewCatalog())

	badVersion := make([]byte, 2)
	badVersion[0] = 9
	wire := buildFrameBytes(uint32(AnswerSuccess), badVersion)
	clientBus.queueBytes(wire)

	err := client.CheckCompatibility()
	if !IsWrongRequestArguments(err) {
		t.Fatalf("expected WrongRequestArguments, got %v", err)
	}
}

func TestSessionBootstrapSucceedsOnQuietBus(t *testing.T) {
	bus := newFakeBus()
	bus.queueTimeout()
	s := NewSession(bus, NewCatalog())

	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if s.State() != StateSynchronized {
		t.Fatalf("state = %v, want Synchronized", s.State())
	}
}
