package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// DefaultDebounce is the minimum interval between completed passes.
const DefaultDebounce = 3 * time.Second

// SyncGate serializes reconciliation passes and centralizes connectivity
// notifications.
//
// TryAcquire is non-blocking and refuses for two independent reasons: a pass
// is currently executing, or less than the debounce interval has elapsed
// since the last completed pass. Callers that fail to acquire must treat the
// refusal as "skip, someone else will handle it", never as an error.
//
// The gate also owns the single process-wide connectivity listener: consumers
// register OnReconnect callbacks once, and exactly one underlying monitor
// watch fans out to all of them in registration order.
type SyncGate struct {
	clock    driven.Clock
	monitor  driven.ConnectivityMonitor
	debounce time.Duration
	logger   *slog.Logger

	mu            sync.Mutex
	held          bool
	lastCompleted time.Time

	cbMu      sync.Mutex
	callbacks []func()
	watchOnce sync.Once
}

// GateConfig holds configuration for the sync gate.
type GateConfig struct {
	Clock    driven.Clock
	Monitor  driven.ConnectivityMonitor
	Debounce time.Duration // default 3s
	Logger   *slog.Logger
}

// NewSyncGate creates a new sync gate.
func NewSyncGate(cfg GateConfig) *SyncGate {
	clock := cfg.Clock
	if clock == nil {
		clock = driven.SystemClock{}
	}
	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncGate{
		clock:    clock,
		monitor:  cfg.Monitor,
		debounce: debounce,
		logger:   logger,
	}
}

// TryAcquire attempts to acquire the gate. Returns false when another pass
// is running or the debounce window since the last completed pass has not
// elapsed.
func (g *SyncGate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held {
		g.logger.Debug("gate held by another pass, skipping")
		return false
	}

	now := g.clock.Now()
	if !g.lastCompleted.IsZero() && now.Sub(g.lastCompleted) < g.debounce {
		g.logger.Debug("gate within debounce window, skipping",
			"since_last", now.Sub(g.lastCompleted),
			"debounce", g.debounce,
		)
		return false
	}

	g.held = true
	return true
}

// Release releases the gate. Only completed passes arm the debounce window;
// a pass that skipped out (offline) releases without affecting it.
func (g *SyncGate) Release(completed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
	if completed {
		g.lastCompleted = g.clock.Now()
	}
}

// LastCompleted returns the time of the last completed pass.
func (g *SyncGate) LastCompleted() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCompleted, !g.lastCompleted.IsZero()
}

// Online reports the monitor's last observed connectivity state.
func (g *SyncGate) Online() bool {
	if g.monitor == nil {
		return true
	}
	return g.monitor.Online()
}

// OnReconnect registers a callback invoked when connectivity is restored.
// The first registration installs the one underlying monitor listener.
func (g *SyncGate) OnReconnect(fn func()) {
	g.cbMu.Lock()
	g.callbacks = append(g.callbacks, fn)
	g.cbMu.Unlock()

	if g.monitor == nil {
		return
	}
	g.watchOnce.Do(func() {
		g.monitor.Watch(func(online bool) {
			if !online {
				return
			}
			g.logger.Info("connectivity restored")
			g.cbMu.Lock()
			callbacks := make([]func(), len(g.callbacks))
			copy(callbacks, g.callbacks)
			g.cbMu.Unlock()
			for _, cb := range callbacks {
				cb()
			}
		})
	})
}
