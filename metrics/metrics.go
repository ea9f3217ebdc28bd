// metrics/metrics.go

// Package metrics holds the Prometheus collectors for the dev server and
// the site build.
package metrics

import (
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// reqDuration is a histogram of HTTP request durations in seconds, labeled
// by route, method, and status code.
var reqDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "termsite_http_request_duration_seconds",
		Help: "Duration of dev server HTTP requests.",
		// buckets in seconds; static files are mostly sub-millisecond
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 2},
	},
	[]string{"path", "method", "status"},
)

// RegisterDefault registers the Go runtime and process collectors plus the
// HTTP and build collectors. Registering twice is harmless.
//
// Any other registration failure is fatal: it is a programming error.
func RegisterDefault(logger *zap.Logger) {
	// Go runtime metrics
	mustRegister(logger, "Go collector", collectors.NewGoCollector())

	// Process metrics
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Dev server requests
	mustRegister(logger, "HTTP request histogram", reqDuration)

	// Build pipeline (see build.go)
	mustRegister(logger, "pages rendered counter", pagesRendered)
	mustRegister(logger, "controller resolution counter", controllerResolutions)
	mustRegister(logger, "build duration histogram", buildDuration)
}

// mustRegister registers c with the default registry. AlreadyRegisteredError
// is ignored; any other failure logs fatally, or panics without a logger.
func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			// Tests and repeated serve runs in one process register twice.
			return
		}
		if logger != nil {
			logger.Fatal("failed to register "+name, zap.Error(err))
		} else {
			// No logger yet; the failure must not pass silently.
			panic("metrics: failed to register " + name + ": " + err.Error())
		}
	}
}

// maxPathLabelLength caps the path label to keep cardinality bounded.
const maxPathLabelLength = 256

// HTTPMetrics is a middleware that records request duration into the
// request histogram. The chi route pattern is used as the path label when
// available. Place it after the recovery middleware so panics count as 500.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// Malformed requests can carry ProtoMajor 0; treat them as HTTP/1.x.
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		statusCode := ww.Status()
		// 0 means the handler never called WriteHeader, which net/http sends
		// as 200. A panic before WriteHeader is turned into 500 by
		// logging.Recoverer, which runs earlier in the chain.
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		// Out-of-range codes from a buggy handler would each become a new
		// label value.
		if statusCode < 100 || statusCode > 599 {
			statusCode = http.StatusInternalServerError
		}

		// Route pattern first ("/debug/pprof/*"), raw path for the file
		// server's catch-all and non-chi handlers.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		// Long paths are cut on a rune boundary and marked with "...".
		if len(path) > maxPathLabelLength {
			path = truncateUTF8(path, maxPathLabelLength-3) + "..."
		}

		reqDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(statusCode),
		).Observe(time.Since(start).Seconds())
	})
}

// Handler returns an http.Handler that exposes the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// truncateUTF8 cuts s to at most maxBytes bytes on a rune boundary.
func truncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	// s[maxBytes] is in range here; step back to the start of its rune.
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
