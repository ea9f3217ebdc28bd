// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/termsite/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig allows cross-origin reads of the built site from the
// configured origins, e.g. a page on another dev port importing modules
// listed in the import map. Disabled CORS yields a pass-through middleware.
func CORSFromConfig(cfg config.CORSConfig) func(next http.Handler) http.Handler {
	if !cfg.EnableCORS {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
