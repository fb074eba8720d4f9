package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven/mocks"
	"github.com/mkulima-labs/daftari-core/internal/core/services"
)

// mockSync implements driving.SyncService for testing
type mockSync struct {
	mu      sync.Mutex
	calls   int
	result  *domain.PassResult
	err     error
	passCh  chan struct{}
	lastRes *domain.PassResult
}

func newMockSync() *mockSync {
	return &mockSync{
		result: &domain.PassResult{Status: domain.PassCompleted},
		passCh: make(chan struct{}, 16),
	}
}

func (m *mockSync) RunPass(ctx context.Context) (*domain.PassResult, error) {
	m.mu.Lock()
	m.calls++
	result, err := m.result, m.err
	if err == nil {
		m.lastRes = result
	}
	m.mu.Unlock()

	select {
	case m.passCh <- struct{}{}:
	default:
	}
	return result, err
}

func (m *mockSync) LastResult() (*domain.PassResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRes, m.lastRes != nil
}

func (m *mockSync) LastPassAt() (time.Time, bool) {
	return time.Time{}, false
}

func (m *mockSync) Subscribe(fn func(domain.SyncEvent)) {}

func (m *mockSync) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSync) waitForPass(t *testing.T) {
	t.Helper()
	select {
	case <-m.passCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a pass")
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_IntervalTriggersPasses(t *testing.T) {
	syncSvc := newMockSync()
	w := New(Config{
		Sync:     syncSvc,
		Logger:   quietLogger(),
		Interval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	syncSvc.waitForPass(t)
	syncSvc.waitForPass(t)

	if syncSvc.callCount() < 2 {
		t.Errorf("expected at least 2 passes, got %d", syncSvc.callCount())
	}
}

func TestWorker_KickTriggersImmediatePass(t *testing.T) {
	syncSvc := newMockSync()
	w := New(Config{
		Sync:     syncSvc,
		Logger:   quietLogger(),
		Interval: time.Hour, // interval must not fire during the test
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	w.Kick()
	syncSvc.waitForPass(t)

	if syncSvc.callCount() != 1 {
		t.Errorf("expected 1 pass, got %d", syncSvc.callCount())
	}
}

func TestWorker_ReconnectTriggersPass(t *testing.T) {
	syncSvc := newMockSync()
	monitor := mocks.NewMockConnectivity(false)
	gate := services.NewSyncGate(services.GateConfig{
		Monitor: monitor,
		Logger:  quietLogger(),
	})

	w := New(Config{
		Sync:     syncSvc,
		Gate:     gate,
		Logger:   quietLogger(),
		Interval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	monitor.SetOnline(true)
	syncSvc.waitForPass(t)

	if syncSvc.callCount() != 1 {
		t.Errorf("expected 1 pass after reconnect, got %d", syncSvc.callCount())
	}
}

func TestWorker_StartIsIdempotent(t *testing.T) {
	syncSvc := newMockSync()
	w := New(Config{Sync: syncSvc, Logger: quietLogger(), Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	w.Stop()
}

func TestWorker_StopWithoutStart(t *testing.T) {
	w := New(Config{Sync: newMockSync(), Logger: quietLogger()})
	w.Stop() // must not panic or block
}

func TestWorker_PassErrorKeepsLoopAlive(t *testing.T) {
	syncSvc := newMockSync()
	syncSvc.err = errors.New("queue store unavailable")

	w := New(Config{
		Sync:     syncSvc,
		Logger:   quietLogger(),
		Interval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	syncSvc.waitForPass(t)
	syncSvc.waitForPass(t)

	if syncSvc.callCount() < 2 {
		t.Errorf("expected the loop to keep running after an error, got %d passes", syncSvc.callCount())
	}
}

func TestWorker_Health(t *testing.T) {
	syncSvc := newMockSync()
	syncSvc.result = &domain.PassResult{Status: domain.PassCompleted, Synced: 4}

	w := New(Config{Sync: syncSvc, Logger: quietLogger(), Interval: time.Hour})

	health := w.Health()
	if health.Running {
		t.Error("expected not running before Start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	w.Kick()
	syncSvc.waitForPass(t)

	health = w.Health()
	if !health.Running {
		t.Error("expected running after Start")
	}
	if health.LastPass == nil || health.LastPass.Synced != 4 {
		t.Errorf("expected last pass with 4 synced, got %+v", health.LastPass)
	}
}
