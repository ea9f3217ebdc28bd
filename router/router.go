// router/router.go
package router

import (
	"github.com/dalemusser/termsite/config"
	"github.com/dalemusser/termsite/logging"
	"github.com/dalemusser/termsite/metrics"
	"github.com/dalemusser/termsite/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates the dev server's chi.Router with the standard stack:
// request ID, real IP, panic recovery, body limit, metrics, access log,
// CORS and compression (when enabled), and JSON 404/405 handlers.
// notFoundPage is the site's 404 page served to browsers; "" disables it.
// Routes are left to the caller.
func New(cfg *config.Config, notFoundPage string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(middleware.LimitBodySize(cfg.HTTP.MaxRequestBodyBytes))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.CORSFromConfig(cfg.CORS))
	r.Use(middleware.CompressFromConfig(cfg.HTTP))

	r.NotFound(middleware.NotFoundHandler(logger, notFoundPage))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))
	return r
}
