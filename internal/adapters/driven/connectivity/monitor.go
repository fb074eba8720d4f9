package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Ensure Monitor implements ConnectivityMonitor
var _ driven.ConnectivityMonitor = (*Monitor)(nil)

// DefaultProbeInterval is how often the background probe runs.
const DefaultProbeInterval = 30 * time.Second

// Monitor probes the ledger's health endpoint to track reachability. The
// state flips only on probe results, so a flapping link produces at most one
// notification per probe interval.
type Monitor struct {
	healthURL  string
	httpClient *http.Client
	interval   time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	online   bool
	listener func(online bool)

	stopCh chan struct{}
	doneCh chan struct{}
}

// Config holds monitor configuration
type Config struct {
	// LedgerURL is the ledger service root; the monitor probes its /health.
	LedgerURL string

	// Interval between background probes. Defaults to 30s.
	Interval time.Duration

	// Timeout for one probe request. Defaults to 5s.
	Timeout time.Duration

	Logger *slog.Logger
}

// NewMonitor creates a new connectivity monitor. Call Start to begin
// background probing.
func NewMonitor(cfg Config) *Monitor {
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultProbeInterval
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		healthURL:  strings.TrimSuffix(cfg.LedgerURL, "/") + "/health",
		httpClient: &http.Client{Timeout: timeout},
		interval:   interval,
		logger:     logger,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Watch installs the state-change listener.
func (m *Monitor) Watch(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = fn
}

// Probe forces an immediate reachability check and updates the state.
func (m *Monitor) Probe(ctx context.Context) bool {
	online := m.probe(ctx)
	m.setOnline(online)
	return online
}

func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (m *Monitor) setOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	listener := m.listener
	m.mu.Unlock()

	if !changed {
		return
	}
	if online {
		m.logger.Info("ledger reachable")
	} else {
		m.logger.Warn("ledger unreachable")
	}
	if listener != nil {
		listener(online)
	}
}

// Start launches background probing. The initial probe runs immediately so
// the state is known before the first interval elapses.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		defer close(m.doneCh)

		m.setOnline(m.probe(ctx))

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.setOnline(m.probe(ctx))
			}
		}
	}()
}

// Stop halts background probing and waits for the probe loop to exit.
func (m *Monitor) Stop() {
	close(m.stopCh)
	<-m.doneCh
}
