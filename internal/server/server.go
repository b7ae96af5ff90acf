package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lowc1012/swc-rate-limiter/internal/config"
	"github.com/lowc1012/swc-rate-limiter/internal/log"
	"github.com/lowc1012/swc-rate-limiter/internal/ratelimiter"
	"github.com/lowc1012/swc-rate-limiter/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	cfg     *config.Config
	limiter ratelimiter.RateLimiter
}

// New creates the HTTP server in front of limiter. gatherer serves the metrics endpoint and may be
// nil when metrics are disabled.
func New(cfg *config.Config, limiter ratelimiter.RateLimiter, gatherer prometheus.Gatherer) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(Recovery)

	s := &Server{
		router:  r,
		cfg:     cfg,
		limiter: limiter,
		server: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
	s.registerRoutes(gatherer)
	return s
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	admission := ratelimiter.NewHTTPRateLimiterHandler(http.HandlerFunc(s.handleAllowed), &ratelimiter.Config{
		Extractor: utils.NewHTTPHeadersExtractor(s.cfg.Limiter.ClientHeaders...),
		Limiter:   s.limiter,
	})

	s.router.Route("/swc", func(r chi.Router) {
		r.Method(http.MethodPost, "/request", admission)
		r.Get("/status", s.handleStatus)
	})
	s.router.Get("/health", handleHealth)

	if s.cfg.Metrics.Enabled && gatherer != nil {
		s.router.Method(http.MethodGet, s.cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown, also when
// Shutdown ran first.
func (s *Server) Start() error {
	log.Logger().Info("Starting HTTP server", zap.String("addr", s.cfg.Server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Logger().Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
