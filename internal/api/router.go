package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/calm-violet-crane/aiops-analyzer/internal/api/health"
	"github.com/calm-violet-crane/aiops-analyzer/internal/api/middleware"
)

// Config configures the API server.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// AnalyzeRateLimit is the per-client request budget per minute for
	// the on-demand trigger endpoint.
	AnalyzeRateLimit int

	// Verbose enables request logging for all requests, not just
	// failures.
	Verbose bool
}

// Server is the analyzer's HTTP server.
type Server struct {
	server *http.Server
	health *health.Handler
}

// NewServer creates the API server around the given engine.
func NewServer(cfg Config, eng Engine) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.AnalyzeRateLimit <= 0 {
		cfg.AnalyzeRateLimit = 10
	}

	healthHandler := health.NewHandler()

	return &Server{
		health: healthHandler,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      newRouter(cfg, eng, healthHandler),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RegisterChecker adds a readiness dependency check.
func (s *Server) RegisterChecker(c health.Checker) {
	s.health.RegisterChecker(c)
}

// newRouter creates and configures the chi router with all routes.
func newRouter(cfg Config, eng Engine, healthHandler *health.Handler) *chi.Mux {
	r := chi.NewRouter()

	handler := NewHandler(eng)
	analyzeLimiter := middleware.NewRateLimiter(cfg.AnalyzeRateLimit)

	// Global middleware
	r.Use(middleware.RequestLogger(cfg.Verbose))
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	// Health checks (public, no rate limit)
	r.Get("/health", handler.Health)
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		// Trigger endpoint is throttled; runs are expensive.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(analyzeLimiter))
			r.Post("/analyze", handler.Analyze)
		})

		r.Get("/anomalies", handler.Anomalies)
		r.Get("/recommendations", handler.Recommendations)
		r.Get("/stats", handler.Stats)
	})

	return r
}

// Start starts the API server.
func (s *Server) Start() error {
	log.Printf("api server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Printf("shutting down api server")
	return s.server.Shutdown(ctx)
}
