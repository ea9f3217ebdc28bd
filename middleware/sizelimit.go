// middleware/sizelimit.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/termsite/httputil"
)

// LimitBodySize caps request bodies at maxBytes. Requests announcing a
// larger Content-Length are refused with 413 up front; others are cut off
// while reading. maxBytes <= 0 disables the limit.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.JSONError(w, http.StatusRequestEntityTooLarge, "request_too_large",
					"The request body is too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
