// Package server implements the antpack HTTP API.
//
// Routes:
//
//	POST /v1/solve                  solve a problem, returns the result and its ID
//	GET  /v1/results/{id}           fetch a stored result
//	GET  /v1/results/{id}/graph     render a stored result (?format=svg|dot|pdf|png)
//	GET  /healthz                   liveness and cache reachability
//	GET  /version                   build information
//	GET  /metrics                   Prometheus metrics
//
// Results are stored in the runner's cache under their ID for
// cache.TTLResult, so any replica sharing a Redis cache can serve them.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/antpack/pkg/metrics"
	"github.com/matzehuels/antpack/pkg/observability"
	"github.com/matzehuels/antpack/pkg/pipeline"
)

// Limits and timeouts applied when Config leaves them zero.
const (
	DefaultAddr         = ":8080"
	DefaultMaxItems     = 1000
	DefaultMaxBins      = 64
	DefaultMaxBudget    = 1_000_000
	DefaultSolveTimeout = 60 * time.Second
	DefaultMaxBodyBytes = 1 << 20

	shutdownTimeout = 30 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr         string
	MaxItems     int
	MaxBins      int
	MaxBudget    int
	SolveTimeout time.Duration
	MaxBodyBytes int64
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxItems == 0 {
		c.MaxItems = DefaultMaxItems
	}
	if c.MaxBins == 0 {
		c.MaxBins = DefaultMaxBins
	}
	if c.MaxBudget == 0 {
		c.MaxBudget = DefaultMaxBudget
	}
	if c.SolveTimeout == 0 {
		c.SolveTimeout = DefaultSolveTimeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Server serves the HTTP API.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	metrics *metrics.Registry
	hooks   observability.HTTPHooks
	logger  *log.Logger
	router  chi.Router
	started time.Time

	// newID returns result IDs; replaced in tests.
	newID func() string
}

// New creates a server. A nil registry disables /metrics; a nil logger means
// runner.Logger.
func New(cfg Config, runner *pipeline.Runner, reg *metrics.Registry, logger *log.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		metrics: reg,
		hooks:   observability.HTTP(),
		logger:  logger,
		started: time.Now(),
		newID:   func() string { return uuid.NewString() },
	}
	if reg != nil {
		s.hooks = reg
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/results/{id}", s.handleGetResult)
		r.Get("/results/{id}/graph", s.handleGraph)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.SolveTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server exited")
	return nil
}
