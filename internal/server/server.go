// Package server provides the HTTP API over the portfolio statistics and
// the Monte Carlo optimizer.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/history"
	"github.com/aristath/quantfolio/internal/optimization"
	"github.com/aristath/quantfolio/internal/portfolio"
)

// Config holds server configuration
type Config struct {
	Log          zerolog.Logger
	Port         int
	Portfolio    *portfolio.Portfolio
	RunStore     *history.RunStore
	NumTrials    int
	RiskFreeRate float64
	Freq         int
	Seed         int64
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", s.handlePortfolio)
		r.Get("/portfolio/chart", s.handlePortfolioChart)

		r.Post("/optimize", s.handleOptimize)
		r.Get("/optimize", s.handleListRuns)
		r.Get("/optimize/{id}", s.handleGetRun)
		r.Get("/optimize/{id}/chart", s.handleRunChart)
	})
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// optimizerFor builds an optimizer from the server defaults overridden by a
// request. The request's pointer fields distinguish absent from zero, so an
// explicit zero in the body (risk-free rate 0, seed 0) is passed through
// as-is; an absent seed with no server seed gets a fresh one per run.
func (s *Server) optimizerFor(req optimizeRequest) *optimization.Optimizer {
	cfg := optimization.DefaultConfig()
	cfg.NumTrials = s.cfg.NumTrials
	cfg.RiskFreeRate = s.cfg.RiskFreeRate
	cfg.Freq = s.cfg.Freq
	if s.cfg.Seed != 0 {
		cfg.Seed = s.cfg.Seed
	}
	if req.NumTrials != nil {
		cfg.NumTrials = *req.NumTrials
	}
	if req.RiskFreeRate != nil {
		cfg.RiskFreeRate = *req.RiskFreeRate
	}
	if req.Freq != nil {
		cfg.Freq = *req.Freq
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	return optimization.New(cfg, s.log)
}
