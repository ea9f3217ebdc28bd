package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/dalemusser/termsite/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler answers 404. Browsers (Accept: text/html) get the site's
// own error page when page names an existing file; everything else gets a
// JSON error body. Pass it to chi.Router.NotFound.
func NotFoundHandler(logger *zap.Logger, page string) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("not_found",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))

		if page != "" && strings.Contains(r.Header.Get("Accept"), "text/html") {
			if b, err := os.ReadFile(page); err == nil {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write(b)
				return
			}
		}
		httputil.JSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
	}
}

// MethodNotAllowedHandler answers 405 with a JSON error body. The dev
// server only serves GET and HEAD. Pass it to chi.Router.MethodNotAllowed.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("method_not_allowed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		w.Header().Set("Allow", "GET, HEAD")
		httputil.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed",
			"The requested HTTP method is not allowed for this resource")
	}
}
