// Package web exposes the action router over HTTP.
//
// Every action is served from a single endpoint, /exec. GET requests carry
// the action and its arguments in the query string; POST requests may add a
// body, which handlers read from route.Request.Body. Handler results are
// always written with status 200; only transport and store failures map to
// an HTTP error status (see MapError).
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/gridroute/internal/application"
	"github.com/JonMunkholm/gridroute/internal/config"
	"github.com/JonMunkholm/gridroute/internal/route"
	"github.com/JonMunkholm/gridroute/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP front end of the router.
type Server struct {
	cfg       *config.Config
	router    *route.Router
	limiter   *route.Limiter
	bootstrap *application.Bootstrap
	gatherer  prometheus.Gatherer

	mux         *chi.Mux
	rateLimiter *middleware.RateLimiter
	server      *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithBootstrap serves the menu built by b at /api/menu.
func WithBootstrap(b *application.Bootstrap) Option {
	return func(s *Server) {
		s.bootstrap = b
	}
}

// WithGatherer serves metrics from g at the configured metrics path.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a Server dispatching to rt. limiter may be nil, in
// which case one is built from the dispatch config.
func NewServer(cfg *config.Config, rt *route.Router, limiter *route.Limiter, opts ...Option) *Server {
	if limiter == nil {
		limiter = route.NewLimiter(cfg.Dispatch.MaxConcurrent, cfg.Dispatch.MaxWait, nil)
	}
	s := &Server{
		cfg:     cfg,
		router:  rt,
		limiter: limiter,
		mux:     chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Rate.Enabled {
		s.rateLimiter = middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.mux.Use(middleware.Logger)
	s.mux.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.mux.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.mux.Use(middleware.SecurityHeaders(s.cfg.Security.EnableCSP))
	if s.rateLimiter != nil {
		s.mux.Use(s.rateLimiter.Middleware)
	}
}

func (s *Server) setupRoutes() {
	s.mux.Get("/healthz", s.handleHealth)

	if s.cfg.Metrics.Enabled && s.gatherer != nil {
		s.mux.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.mux.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		r.Get("/exec", s.handleExec)
		r.Post("/exec", s.handleExec)

		r.Route("/api", func(r chi.Router) {
			r.Get("/menu", s.handleMenu)
			r.Get("/actions", s.handleActions)
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight dispatches.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// RateLimiter returns the per-client limiter, or nil when disabled.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.mux
}

// writeJSON encodes v as JSON and writes it to w with status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
