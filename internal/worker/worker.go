package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driving"
	"github.com/mkulima-labs/daftari-core/internal/core/services"
)

// DefaultInterval is how often the worker runs a pass when nothing else
// triggers one.
const DefaultInterval = 5 * time.Minute

// Worker drives reconciliation passes in the background: one on a fixed
// interval, and one immediately when connectivity is restored. The gate's
// debounce keeps the two triggers from stacking passes.
type Worker struct {
	sync   driving.SyncService
	gate   *services.SyncGate
	logger *slog.Logger

	interval time.Duration

	// Internal state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	kickCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	Sync     driving.SyncService
	Gate     *services.SyncGate
	Logger   *slog.Logger
	Interval time.Duration // default 5m
}

// New creates a new sync worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Worker{
		sync:     cfg.Sync,
		gate:     cfg.Gate,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.kickCh = make(chan struct{}, 1)
	w.mu.Unlock()

	w.logger.Info("sync worker starting", "interval", w.interval)

	if w.gate != nil {
		w.gate.OnReconnect(w.kick)
	}

	go w.loop(ctx)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
}

// Kick requests an immediate pass outside the interval schedule, as after
// a capture while online. A pass already pending coalesces with it.
func (w *Worker) Kick() {
	w.kick()
}

func (w *Worker) kick() {
	w.mu.Lock()
	kickCh := w.kickCh
	w.mu.Unlock()
	if kickCh == nil {
		return
	}
	select {
	case kickCh <- struct{}{}:
	default:
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sync worker context cancelled")
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runPass(ctx, "interval")
		case <-w.kickCh:
			w.runPass(ctx, "kick")
		}
	}
}

func (w *Worker) runPass(ctx context.Context, trigger string) {
	result, err := w.sync.RunPass(ctx)
	if err != nil {
		w.logger.Error("pass failed", "trigger", trigger, "error", err)
		return
	}

	switch result.Status {
	case domain.PassSkipped, domain.PassSkippedOffline:
		w.logger.Debug("pass skipped", "trigger", trigger, "status", result.Status)
	case domain.PassSuspended:
		w.logger.Warn("pass suspended",
			"trigger", trigger,
			"synced", result.Synced,
			"error", result.Error,
		)
	default:
		w.logger.Info("pass completed",
			"trigger", trigger,
			"synced", result.Synced,
			"failed", result.Failed,
			"resolved", result.Resolved,
			"duration", result.Duration,
		)
	}
}

// Health reports whether the worker loop is running and what the last
// pass produced.
type Health struct {
	Running  bool               `json:"running"`
	LastPass *domain.PassResult `json:"last_pass,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health() Health {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	health := Health{Running: running}
	if result, ok := w.sync.LastResult(); ok {
		health.LastPass = result
	}
	return health
}
