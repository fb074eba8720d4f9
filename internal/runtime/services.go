package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mkulima-labs/daftari-core/internal/adapters/driven/auth"
	"github.com/mkulima-labs/daftari-core/internal/adapters/driven/connectivity"
	"github.com/mkulima-labs/daftari-core/internal/adapters/driven/ledger"
	"github.com/mkulima-labs/daftari-core/internal/adapters/driven/postgres"
	"github.com/mkulima-labs/daftari-core/internal/adapters/driven/redis"
	"github.com/mkulima-labs/daftari-core/internal/adapters/driven/sqlite"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
	"github.com/mkulima-labs/daftari-core/internal/core/services"
	"github.com/mkulima-labs/daftari-core/internal/normalisers"
	"github.com/mkulima-labs/daftari-core/internal/worker"
)

// Config holds everything needed to assemble the engine.
type Config struct {
	DeviceID     string
	DeviceSecret string
	JWTSecret    string

	// QueueBackend selects where the durable queue lives: "sqlite" for a
	// standalone scale station, "postgres" for hub deployments where
	// several stations share one queue database.
	QueueBackend string
	SQLitePath   string
	DatabaseURL  string

	// RedisURL enables the Redis reference cache. Empty means reference
	// data is served from the local SQLite store.
	RedisURL string

	LedgerURL string

	SyncInterval     time.Duration
	SyncDebounce     time.Duration
	ProbeInterval    time.Duration
	GuardConcurrency int
	ChunkSize        int
	VerifyPolicy     services.VerifyPolicy

	Logger *slog.Logger
}

// Runtime is the assembled engine: every adapter connected and every
// service wired. The HTTP server and the worker both hang off one Runtime.
type Runtime struct {
	Queue   driven.DeliveryQueue
	Refs    driven.ReferenceStore
	Clerks  driven.ClerkStore
	Ledger  *ledger.Client
	Monitor *connectivity.Monitor

	Gate         *services.SyncGate
	Guard        *services.DeliveryGuard
	Orchestrator *services.Orchestrator
	Capture      *services.CaptureManager
	Auth         *services.AuthManager
	Worker       *worker.Worker

	// DB is the device-local database, always open; it backs the clerk
	// store and, without Redis, the reference store.
	DB *sqlite.DB

	// HubDB is the shared queue database in hub mode, nil otherwise.
	HubDB *postgres.DB

	// Cache is the Redis client when RedisURL is set, nil otherwise.
	Cache *goredis.Client

	logger *slog.Logger
}

// New assembles the engine from configuration. The caller owns the
// Runtime and must Close it.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runtime{logger: logger}

	db, err := sqlite.Connect(ctx, sqlite.DefaultConfig(cfg.SQLitePath))
	if err != nil {
		return nil, fmt.Errorf("open device database: %w", err)
	}
	r.DB = db
	r.Clerks = sqlite.NewClerkStore(db)

	switch cfg.QueueBackend {
	case "", "sqlite":
		r.Queue = sqlite.NewQueue(db)
	case "postgres":
		hub, err := postgres.Connect(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("open hub queue database: %w", err)
		}
		r.HubDB = hub
		r.Queue = postgres.NewQueue(hub)
	default:
		r.Close()
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}

	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		r.Cache = goredis.NewClient(opts)
		r.Refs = redis.NewReferenceStore(r.Cache)
	} else {
		r.Refs = sqlite.NewReferenceStore(db)
	}

	r.Ledger = ledger.NewClient(ledger.Config{
		BaseURL:      cfg.LedgerURL,
		DeviceID:     cfg.DeviceID,
		DeviceSecret: cfg.DeviceSecret,
	})

	r.Monitor = connectivity.NewMonitor(connectivity.Config{
		LedgerURL: cfg.LedgerURL,
		Interval:  cfg.ProbeInterval,
		Logger:    logger,
	})

	r.Gate = services.NewSyncGate(services.GateConfig{
		Monitor:  r.Monitor,
		Debounce: cfg.SyncDebounce,
		Logger:   logger,
	})

	r.Guard = services.NewDeliveryGuard(services.GuardConfig{
		Queue:       r.Queue,
		Ledger:      r.Ledger,
		Refs:        r.Refs,
		Concurrency: cfg.GuardConcurrency,
		Logger:      logger,
	})

	refresher := services.NewReferenceRefresher(r.Ledger, r.Refs, logger)

	r.Orchestrator = services.NewOrchestrator(services.OrchestratorConfig{
		Queue:        r.Queue,
		Ledger:       r.Ledger,
		Gate:         r.Gate,
		Monitor:      r.Monitor,
		Refresher:    refresher,
		Logger:       logger,
		ChunkSize:    cfg.ChunkSize,
		VerifyPolicy: cfg.VerifyPolicy,
	})

	r.Capture = services.NewCaptureManager(services.CaptureManagerConfig{
		Queue:       r.Queue,
		Refs:        r.Refs,
		Guard:       r.Guard,
		Sync:        r.Orchestrator,
		Monitor:     r.Monitor,
		Normalisers: normalisers.DefaultRegistry(),
		DeviceID:    cfg.DeviceID,
		Logger:      logger,
	})

	r.Auth = services.NewAuthManager(
		r.Clerks,
		auth.NewAdapter(cfg.JWTSecret),
		nil,
		cfg.DeviceID,
		0,
		logger,
	)

	r.Worker = worker.New(worker.Config{
		Sync:     r.Orchestrator,
		Gate:     r.Gate,
		Logger:   logger,
		Interval: cfg.SyncInterval,
	})

	return r, nil
}

// Start begins the background loops: the connectivity monitor and the
// sync worker.
func (r *Runtime) Start(ctx context.Context) error {
	r.Monitor.Start(ctx)
	return r.Worker.Start(ctx)
}

// Stop halts the background loops.
func (r *Runtime) Stop() {
	r.Worker.Stop()
	r.Monitor.Stop()
}

// Close releases every connection the runtime holds.
func (r *Runtime) Close() error {
	var firstErr error
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.HubDB != nil {
		if err := r.HubDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
