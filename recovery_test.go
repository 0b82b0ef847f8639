package bridge

import "testing"

func TestRecoverSucceedsOnQuietBus(t *testing.T) {
	bus := newFakeBus()
	bus.queueBytes([]byte{0xAA, 0xBB})
	bus.queueTimeout()

	if err := Recover(bus, 1000); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if bus.readPos != 3 {
		t.Fatalf("expected 3 probes consumed, got %d", bus.readPos)
	}
}

func TestRecoverTimesOutWhenBusNeverQuiets(t *testing.T) {
	bus := newFakeBus()
	for i := 0; i < 10; i++ {
		bus.queueBytes([]byte{0x01})
	}

	err := Recover(bus, 5*RecoverTimeoutMs)
	if !IsTimeout(err) {
		t.Fatalf("expected Timeout, got %v", err)
	}
}

func TestRecoverShortCircuitsBelowRecoverTimeout(t *testing.T) {
	bus := newFakeBus()
	err := Recover(bus, RecoverTimeoutMs-1)
	if !IsTimeout(err) {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if bus.readPos != 0 {
		t.Fatal("short-circuit must not touch the bus")
	}
}

func TestRecoverPropagatesIOError(t *testing.T) {
	bus := newFakeBus()
	bus.queueIOError(errChecksumMismatch)
	if err := Recover(bus, 1000); !IsIOError(err) {
		t.Fatalf("expected IOError, got %v", err)
	}
}
