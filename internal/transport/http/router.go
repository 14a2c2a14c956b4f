package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/trace"

	"gridview/internal/config"
	apierrors "gridview/internal/errors"
	"gridview/internal/infrastructure"
	"gridview/internal/middleware"
)

// RouterDeps are the collaborators of the HTTP router. Tracer, Metrics and
// MetricsHandler are optional.
type RouterDeps struct {
	Service        GridServiceInterface
	Logger         *slog.Logger
	RateLimit      config.RateLimitConfig
	Tracer         trace.Tracer
	Metrics        *infrastructure.HTTPMetrics
	MetricsHandler http.Handler
}

// NewRouter builds the server router: request ID, logging, panic recovery
// and rate limiting, then /healthz, /metrics and the /api grid routes.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(errorHandler, logger))
	if deps.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(deps.RateLimit.RPS, deps.RateLimit.Burst, errorHandler, logger).Handler)
	}
	if deps.Tracer != nil && deps.Metrics != nil {
		r.Use(middleware.Telemetry(deps.Tracer, deps.Metrics))
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Mount("/api", NewGridHandler(deps.Service, logger, errorHandler).Routes())
	return r
}
