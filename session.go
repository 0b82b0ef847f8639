package bridge

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
)

// SessionState tracks one side's belief about bus synchronization.
type SessionState int

const (
	// StateSuspected is the initial state, and the state entered after any
	// Corrupted result: the peer's frame boundary is no longer trustworthy.
	StateSuspected SessionState = iota
	// StateSynchronized means the last operation completed successfully.
	StateSynchronized
	// StateFailed means the bus reported a hard I/O error. Terminal.
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateSuspected:
		return "Suspected"
	case StateSynchronized:
		return "Synchronized"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

/*DispatchOutcome disambiguates the two reasons Process can return with no
usable Request: nothing arrived in time, versus something arrived that the
catalog didn't recognize (and has already been recovered past).*/
type DispatchOutcome int

const (
	// NoRequest means Process has no Request to hand back: its first-byte
	// timeout elapsed with nothing to read, or a Corrupted frame was read and
	// Process ran Recover past it.
	NoRequest DispatchOutcome = iota
	// RequestReceived means Process decoded a valid, cataloged Request.
	RequestReceived
	// UnknownRequestRecovered means a frame decoded but named a type the
	// catalog does not recognize; Process already ran Recover on the caller's behalf.
	UnknownRequestRecovered
)

func (o DispatchOutcome) String() string {
	switch o {
	case NoRequest:
		return "NoRequest"
	case RequestReceived:
		return "RequestReceived"
	case UnknownRequestRecovered:
		return "UnknownRequestRecovered"
	default:
		return "Unknown"
	}
}

/*Session wraps a ByteBus and a Catalog under a mutex, serializing access so
only one Exchange/ReadRequest/Answer* call proceeds at a time, and the
State machine is advanced after every one of them.*/
type Session struct {
	mu      sync.Mutex
	bus     ByteBus
	catalog Catalog
	state   SessionState
}

// NewSession returns a Session in the initial Suspected state, per the
// protocol's "no synchronization assumed at boot" rule.
func NewSession(bus ByteBus, catalog Catalog) *Session {
	return &Session{bus: bus, catalog: catalog, state: StateSuspected}
}

//String implements fmt.Stringer.
func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("session over %v [%v]", s.bus, s.state)
}

// State returns the session's current SessionState.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition advances State according to err, matching the per-side state
// machine: Success->Synchronized, Corrupted->Suspected, IOError->Failed
// (terminal); Timeout and the answer-rejection results leave State
// untouched since they describe this one operation, not bus synchronization.
func (s *Session) transition(err error) {
	switch ResultOf(err) {
	case ResultSuccess:
		s.state = StateSynchronized
	case ResultCorrupted:
		s.state = StateSuspected
	case ResultIOError:
		s.state = StateFailed
	}
}

/*Bootstrap runs Recover in a loop (1000ms budget per the protocol's
recommended bootstrap) until it returns something other than Timeout, or
ctx is cancelled. It is the client/server startup step that establishes an
initial Synchronized state without having observed any prior traffic.*/
func (s *Session) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			return newProtocolError(ResultIOError, ctx.Err())
		default:
		}
		err := Recover(s.bus, 1000)
		s.transition(err)
		if err == nil || !IsTimeout(err) {
			return err
		}
	}
}

/*Exchange is the client-side operation: write req, then read the answer
with a WaitAnswerTimeoutMs first-byte timeout. Its ProtocolResult is
Success, Timeout (no answer byte within WaitAnswerTimeoutMs),
RequestRejected, WrongRequestArguments, Corrupted, or IOError;
on Corrupted the caller must invoke Recover before the next Exchange.*/
func (s *Session) Exchange(req Request) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeRequestFrame(s.bus, req); err != nil {
		s.transition(err)
		return Answer{}, err
	}
	ans, err := readAnswerFrame(s.bus, WaitAnswerTimeoutMs, s.catalog, req.Type)
	s.transition(err)
	return ans, err
}

/*ReadRequest is the server-side read half: Framer read path with a
caller-supplied first-byte timeout (0 for a non-blocking poll, WaitForever
to block until something arrives).*/
func (s *Session) ReadRequest(firstByteTimeoutMs uint32) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := readRequestFrame(s.bus, firstByteTimeoutMs, s.catalog)
	s.transition(err)
	return req, err
}

/*Process combines ReadRequest with a host policy: an unrecognized request
type, or a Corrupted frame, is run past Recover before returning to the
caller rather than handed up as a fatal error - matching the original
server example, which treats CORRUPTED as "recover and keep looping" and
reserves termination for IO_ERROR. It disambiguates the "no usable Request"
cases a plain first-byte-timeout read would otherwise conflate.*/
func (s *Session) Process(firstByteTimeoutMs uint32) (Request, DispatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := readRequestFrame(s.bus, firstByteTimeoutMs, s.catalog)
	s.transition(err)
	switch {
	case err == nil:
		if !s.catalog.Contains(req.Type) {
			if rerr := s.recoverAfterCorruption(); rerr != nil {
				return Request{}, NoRequest, rerr
			}
			return Request{}, UnknownRequestRecovered, nil
		}
		return req, RequestReceived, nil
	case IsTimeout(err):
		return Request{}, NoRequest, nil
	case IsCorrupted(err):
		if rerr := s.recoverAfterCorruption(); rerr != nil {
			return Request{}, NoRequest, rerr
		}
		return Request{}, NoRequest, nil
	default:
		return Request{}, NoRequest, err
	}
}

// recoverLocked runs Recover and applies the resulting transition. Callers
// must already hold s.mu.
func (s *Session) recoverLocked(timeoutMs uint32) error {
	err := Recover(s.bus, timeoutMs)
	if err == nil {
		s.state = StateSynchronized
	} else {
		s.transition(err)
	}
	return err
}

/*recoverAfterCorruption runs the standard 1000ms host-policy recovery used
after a Corrupted read or an unrecognized request type, and reports only a
hard IOError back to the caller as fatal - a Recover timeout just means the
bus hasn't quieted within this budget yet, no worse than the condition that
triggered the recovery in the first place. Callers must already hold s.mu.*/
func (s *Session) recoverAfterCorruption() error {
	if err := s.recoverLocked(1000); err != nil && IsIOError(err) {
		return err
	}
	return nil
}

// Recover exposes the Recovery engine through the Session, applying the
// resulting state transition under the session's lock.
func (s *Session) Recover(timeoutMs uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recoverLocked(timeoutMs)
}

/*CheckCompatibility is the client-side check run before trusting a server:
exchange a MATCH_PROTOCOL_VERSION request and confirm the server's answer
reports this package's ProtocolVersion.*/
func (s *Session) CheckCompatibility() error {
	ans, err := s.Exchange(NewMatchProtocolVersionRequest())
	if err != nil {
		return err
	}
	version, err := ans.ProtocolVersion()
	if err != nil {
		return newProtocolError(ResultCorrupted, err)
	}
	if version != ProtocolVersion {
		return newProtocolError(ResultWrongRequestArguments, fmt.Errorf("server reports protocol version %d, want %d", version, ProtocolVersion))
	}
	return nil
}

// AnswerMatchProtocolVersion is the server-side typed helper answering a
// MATCH_PROTOCOL_VERSION request with this package's compile-time ProtocolVersion.
func (s *Session) AnswerMatchProtocolVersion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, ProtocolVersion)
	err := writeAnswerFrame(s.bus, Answer{Type: AnswerSuccess, Payload: payload})
	s.transition(err)
	return err
}

// AnswerGetDeviceInfo is the server-side typed helper answering a
// GET_DEVICE_INFO request with info.
func (s *Session) AnswerGetDeviceInfo(info DeviceInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := writeAnswerFrame(s.bus, Answer{Type: AnswerSuccess, Payload: encodeDeviceInfo(info)})
	s.transition(err)
	return err
}

// AnswerRejected answers the most recent request with REQUEST_REJECTED.
func (s *Session) AnswerRejected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := writeAnswerFrame(s.bus, Answer{Type: AnswerRequestRejected})
	s.transition(err)
	return err
}

// AnswerWrongArguments answers the most recent request with WRONG_REQUEST_ARGUMENTS.
func (s *Session) AnswerWrongArguments() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := writeAnswerFrame(s.bus, Answer{Type: AnswerWrongRequestArguments})
	s.transition(err)
	return err
}
