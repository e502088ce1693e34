package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/couchcryptid/port-rates-service/internal/lookup"
	"github.com/couchcryptid/port-rates-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// RateService answers rate and port lookups and reports readiness.
type RateService interface {
	Rates(ctx context.Context, req lookup.Request) ([]domain.DailyRate, error)
	Ports(ctx context.Context, id domain.Identifier) (domain.PortSet, error)
	sharedobs.ReadinessChecker
}

// Options configures the edge middleware.
type Options struct {
	// RateLimitRPS caps API requests per second across all clients; 0
	// disables it. Health, readiness, and metrics are never limited.
	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string
}

// Server exposes the rates API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        RateService
	logger     *slog.Logger
	metrics    *observability.Metrics
	limiter    *rate.Limiter
}

// NewServer creates an HTTP server with /rates, /regions/{slug}/ports,
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, svc RateService, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:     svc,
		logger:  logger,
		metrics: metrics,
	}

	if opts.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), max(opts.RateLimitBurst, 1))
	}

	mux.HandleFunc("GET /rates", s.api("/rates", s.handleRates))
	mux.HandleFunc("GET /regions/{slug}/ports", s.api("/regions/{slug}/ports", s.handlePorts))
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := requestLogging(logger, mux)
	handler = requestID(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// api wraps an API route with the rate limiter and the request counter.
func (s *Server) api(route string, h http.HandlerFunc) http.HandlerFunc {
	var handler http.Handler = h
	if s.limiter != nil {
		handler = rateLimit(s.limiter, s.metrics, handler)
	}
	return s.instrument(route, handler.ServeHTTP)
}
