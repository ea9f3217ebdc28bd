// pantry/health/health.go

// Package health serves the dev server's /healthz route.
package health

import (
	"context"
	"net/http"
	"sort"

	"github.com/dalemusser/termsite/httputil"
	"go.uber.org/zap"
)

// Check returns nil when the thing it probes is healthy.
type Check func(ctx context.Context) error

// Response is the JSON body of the health route.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler runs checks on each request, in name order. Any failure turns
// the response into a 503 with status "error"; with no checks it is a
// plain liveness probe.
func Handler(checks map[string]Check, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := Response{Status: "ok"}
		code := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			check := checks[name]
			if check == nil {
				resp.Checks[name] = "ok"
				continue
			}
			if err := check(r.Context()); err != nil {
				resp.Status = "error"
				resp.Checks[name] = "error: " + err.Error()
				code = http.StatusServiceUnavailable
				logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				continue
			}
			resp.Checks[name] = "ok"
		}
		_ = httputil.WriteJSON(w, code, resp)
	})
}
