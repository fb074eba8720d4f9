package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the device-local HTTP server the capture UI talks to
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	authService    driving.AuthService
	captureService driving.CaptureService
	syncService    driving.SyncService
	guardService   driving.GuardService

	// Infrastructure
	monitor driven.ConnectivityMonitor
	db      Pinger // queue database health check
	cache   Pinger // reference cache health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	captureService driving.CaptureService,
	syncService driving.SyncService,
	guardService driving.GuardService,
	monitor driven.ConnectivityMonitor,
	db Pinger,
	cache Pinger, // can be nil
) *Server {
	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		authService:    authService,
		captureService: captureService,
		syncService:    syncService,
		guardService:   guardService,
		monitor:        monitor,
		db:             db,
		cache:          cache,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Create middleware
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Capture endpoints (authenticated)
	s.router.Handle("POST /api/v1/captures/delivery",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCaptureDelivery)))
	s.router.Handle("POST /api/v1/captures/sale",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCaptureSale)))

	// Queue read models (authenticated)
	s.router.Handle("GET /api/v1/pending",
		authMiddleware.Authenticate(http.HandlerFunc(s.handlePending)))
	s.router.Handle("GET /api/v1/queue",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListQueue)))

	// Sync endpoints (authenticated)
	s.router.Handle("POST /api/v1/sync",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleTriggerSync)))
	s.router.Handle("GET /api/v1/sync/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncStatus)))

	// Guard endpoint (authenticated)
	s.router.Handle("GET /api/v1/producers/{id}/guard",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGuardCheck)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
