// Package server wires the engine handlers behind a Chi router with request
// IDs, structured request logging, CORS, and rate limiting, and runs the
// HTTP server with graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ndmokit/ndmokit/internal/config"
	"github.com/ndmokit/ndmokit/internal/handler"
	"github.com/ndmokit/ndmokit/internal/history"
	"github.com/ndmokit/ndmokit/internal/openapi"
	"github.com/ndmokit/ndmokit/internal/scorer"
	"github.com/ndmokit/ndmokit/internal/server/middleware"
	"github.com/ndmokit/ndmokit/internal/standards"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host              string
	Port              int
	ShutdownTimeout   time.Duration
	CORSOrigins       []string
	RequestsPerMinute int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		ShutdownTimeout:   30 * time.Second,
		CORSOrigins:       []string{"*"},
		RequestsPerMinute: 120,
	}
}

// Server is the top-level HTTP server. It owns the router, the standards
// registry, and the run history store.
type Server struct {
	cfg        Config
	engineCfg  config.Config
	router     chi.Router
	reg        *standards.Registry
	store      *history.Store
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired. The store may
// be nil to disable run history.
func New(cfg Config, engineCfg config.Config, reg *standards.Registry, store *history.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		engineCfg: engineCfg,
		reg:       reg,
		store:     store,
		logger:    logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", s.handleOpenAPI)

	sc := scorer.New(s.reg, s.engineCfg, s.logger)
	engine := handler.NewEngineHandler(s.engineCfg, sc, s.store, s.logger)
	stdsHandler := handler.NewStandardsHandler(s.reg)

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RequestsPerMinute > 0 {
			r.Use(middleware.RateLimit(s.cfg.RequestsPerMinute))
		}

		r.Post("/assess", engine.Assess)
		r.Post("/remediate", engine.Remediate)
		r.Post("/process", engine.Process)

		r.Get("/standards", stdsHandler.List)
		r.Get("/standards/{standardID}", stdsHandler.Get)

		if s.store != nil {
			runsHandler := handler.NewRunsHandler(s.store)
			r.Get("/runs", runsHandler.List)
			r.Get("/runs/{runID}", runsHandler.Get)
		}
	})

	s.router = r
}

// handleHealthz is a liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz reports ready once the standards registry is loaded and the
// history store (when configured) answers.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.reg == nil || s.reg.Len() == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"no standards loaded"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","standards":%d}`, s.reg.Len())
}

// handleOpenAPI serves the generated API document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := openapi.Generate(fmt.Sprintf("http://%s:%d", s.cfg.Host, s.cfg.Port), s.reg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(doc)
}

// ListenAndServe starts the server and blocks until SIGINT or SIGTERM, then
// drains in-flight requests before closing the history store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if s.store != nil {
		s.store.Close()
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
