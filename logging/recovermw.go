// logging/recovermw.go
package logging

import (
	"net/http"
	"runtime/debug"

	"github.com/dalemusser/termsite/httputil"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Recoverer recovers panics in later handlers, logs them with a stack
// trace, and answers 500 when nothing was written yet.
func Recoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Malformed requests can carry ProtoMajor 0.
			protoMajor := max(r.ProtoMajor, 1)
			ww := middleware.NewWrapResponseWriter(w, protoMajor)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// ErrAbortHandler is net/http's signal to drop the connection
				// quietly; let it through.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					zap.Any("panic_value", rec),
					zap.ByteString("stacktrace", debug.Stack()),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
				// Headers already sent cannot be replaced with an error body.
				if ww.Status() == 0 {
					httputil.JSONError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
