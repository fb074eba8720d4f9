package services

import (
	"testing"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven/mocks"
)

func newTestGate(clock *mocks.FakeClock, monitor *mocks.MockConnectivity) *SyncGate {
	return NewSyncGate(GateConfig{
		Clock:   clock,
		Monitor: monitor,
	})
}

func TestGate_ExclusiveAcquire(t *testing.T) {
	clock := mocks.NewFakeClock(time.Now())
	gate := newTestGate(clock, mocks.NewMockConnectivity(true))

	if !gate.TryAcquire() {
		t.Fatal("expected first acquire to succeed")
	}
	if gate.TryAcquire() {
		t.Fatal("expected second acquire to fail while held")
	}

	gate.Release(false)
	if !gate.TryAcquire() {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestGate_DebounceAfterCompletedPass(t *testing.T) {
	clock := mocks.NewFakeClock(time.Now())
	gate := newTestGate(clock, mocks.NewMockConnectivity(true))

	if !gate.TryAcquire() {
		t.Fatal("expected acquire to succeed")
	}
	gate.Release(true)

	if gate.TryAcquire() {
		t.Fatal("expected acquire to fail inside the debounce window")
	}

	clock.Advance(2 * time.Second)
	if gate.TryAcquire() {
		t.Fatal("expected acquire to fail at 2s, debounce is 3s")
	}

	clock.Advance(1001 * time.Millisecond)
	if !gate.TryAcquire() {
		t.Fatal("expected acquire to succeed after the debounce window")
	}
}

func TestGate_SkippedPassDoesNotArmDebounce(t *testing.T) {
	clock := mocks.NewFakeClock(time.Now())
	gate := newTestGate(clock, mocks.NewMockConnectivity(true))

	if !gate.TryAcquire() {
		t.Fatal("expected acquire to succeed")
	}
	gate.Release(false)

	// No debounce: the pass did not complete.
	if !gate.TryAcquire() {
		t.Fatal("expected immediate re-acquire after a non-completed release")
	}
	gate.Release(false)

	if _, ok := gate.LastCompleted(); ok {
		t.Fatal("expected no completed pass recorded")
	}
}

func TestGate_ReconnectFanOutInRegistrationOrder(t *testing.T) {
	clock := mocks.NewFakeClock(time.Now())
	monitor := mocks.NewMockConnectivity(false)
	gate := newTestGate(clock, monitor)

	var order []int
	gate.OnReconnect(func() { order = append(order, 1) })
	gate.OnReconnect(func() { order = append(order, 2) })
	gate.OnReconnect(func() { order = append(order, 3) })

	monitor.SetOnline(true)

	if len(order) != 3 {
		t.Fatalf("expected 3 callbacks, got %d", len(order))
	}
	for i, n := range order {
		if n != i+1 {
			t.Fatalf("expected callbacks in registration order, got %v", order)
		}
	}
}

func TestGate_OfflineTransitionDoesNotNotify(t *testing.T) {
	clock := mocks.NewFakeClock(time.Now())
	monitor := mocks.NewMockConnectivity(true)
	gate := newTestGate(clock, monitor)

	calls := 0
	gate.OnReconnect(func() { calls++ })

	monitor.SetOnline(false)
	if calls != 0 {
		t.Fatalf("expected no callback on going offline, got %d", calls)
	}

	monitor.SetOnline(true)
	if calls != 1 {
		t.Fatalf("expected 1 callback on reconnect, got %d", calls)
	}
}
