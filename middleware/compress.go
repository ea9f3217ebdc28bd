// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/termsite/config"
	"github.com/go-chi/chi/v5/middleware"
)

// CompressibleTypes are the content types compressed on the fly. Assets
// with a pre-compressed .br/.gz sibling are served as-is by the file server.
var CompressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
	"application/importmap+json",
	"image/svg+xml",
}

// CompressFromConfig returns gzip/deflate compression at cfg's level, or a
// pass-through middleware when compression is disabled. The level was
// validated when the config was loaded; out of range values are clamped.
func CompressFromConfig(cfg config.HTTPConfig) func(next http.Handler) http.Handler {
	if !cfg.EnableCompression {
		return func(next http.Handler) http.Handler { return next }
	}
	level := min(max(cfg.CompressionLevel, 1), 9)
	return middleware.Compress(level, CompressibleTypes...)
}
