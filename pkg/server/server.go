package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/walkeeper/pkg/config"
	"mercator-hq/walkeeper/pkg/telemetry/health"
	"mercator-hq/walkeeper/pkg/telemetry/tracing"
	"mercator-hq/walkeeper/pkg/wal"
)

// Options wires the server to the rest of walkeeper.
type Options struct {
	Engine    Engine
	Directory wal.SegmentDirectory
	Floor     wal.RecoveryFloor

	// Scheduler adds next-run and last-pass details to the status. Optional.
	Scheduler Scheduler

	// ConfiguredPolicy returns the policy text of the loaded configuration,
	// which differs from the live policy after a PUT. Optional.
	ConfiguredPolicy func() string

	// Health serves the liveness and readiness endpoints. Optional.
	Health      *health.Checker
	HealthPaths health.Paths
	Version     health.VersionInfo

	// Metrics is mounted at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string
}

// Server is the admin HTTP server.
type Server struct {
	config     *config.ServerConfig
	engine     Engine
	dir        wal.SegmentDirectory
	floor      wal.RecoveryFloor
	scheduler  Scheduler
	configured func() string
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger

	mu        sync.Mutex
	isRunning bool
	addr      net.Addr
}

// New creates an admin server.
func New(cfg *config.ServerConfig, opts Options) *Server {
	s := &Server{
		config:     cfg,
		engine:     opts.Engine,
		dir:        opts.Directory,
		floor:      opts.Floor,
		scheduler:  opts.Scheduler,
		configured: opts.ConfiguredPolicy,
		logger:     slog.Default().With("component", "server"),
	}
	s.handler = s.setupRoutes(opts)
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures routes and the middleware chain.
func (s *Server) setupRoutes(opts Options) http.Handler {
	mux := http.NewServeMux()

	if opts.Health != nil {
		opts.Health.Register(mux, opts.HealthPaths, opts.Version)
	}
	if opts.Metrics != nil && opts.MetricsPath != "" {
		mux.Handle(opts.MetricsPath, opts.Metrics)
	}

	mux.HandleFunc("GET /v1/retention", s.handleStatus)
	mux.HandleFunc("POST /v1/retention/prune", s.handlePrune)
	mux.HandleFunc("PUT /v1/retention/policy", s.handlePolicy)

	var handler http.Handler = mux
	handler = LoggingMiddleware(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return handler
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	}
}

// Addr returns the bound address once the server has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

	shutdownCtx := ctx
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("admin server stopped")
	return nil
}
