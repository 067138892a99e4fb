package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/artpar/shapegen/adapters/metrics"
	"github.com/artpar/shapegen/pkg/jsonapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // Optional metrics exporter handler (defaults to promhttp)
	MetricsPath    string       // Path of the metrics endpoint (default /metrics)
	Version        string
	RequestTimeout time.Duration // Per-request timeout (default 60s)
}

// NewRouter creates the HTTP router.
func NewRouter(h *GenerateHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, metricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, metricsPath))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusNotFound, "not_found", "Not Found").
			Detailf("no route for %s", req.URL.Path).
			Build())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		jsonapi.WriteMethodNotAllowed(w, req.Method, allowedMethods(req.URL.Path))
	})

	r.Get("/health", Liveness)
	r.Get("/version", VersionHandler(cfg.Version))

	// Metrics endpoint (prefer the configured handler, fall back to promhttp)
	if cfg.MetricsHandler != nil {
		r.Handle(metricsPath, cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle(metricsPath, promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", h.Generate)
		r.Post("/batch", h.Batch)
	})

	return r
}

func allowedMethods(path string) []string {
	switch {
	case strings.HasPrefix(path, "/v1/"):
		return []string{http.MethodPost}
	default:
		return []string{http.MethodGet}
	}
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if skipInstrumentation(r.URL.Path, metricsPath) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := statusLabel(ww.Status())
			path := metrics.NormalizePath(r.URL.Path)

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// NewLoggingMiddleware creates middleware that logs each request.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if skipInstrumentation(r.URL.Path, metricsPath) {
				return
			}

			ev := logger.Debug()
			if ww.Status() >= 500 {
				ev = logger.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func skipInstrumentation(path, metricsPath string) bool {
	return strings.HasPrefix(path, "/health") || path == metricsPath
}
