// pantry/version/version.go

// Package version reports the build's version for `termsite version` and
// the dev server's /version route.
package version

import (
	"net/http"
	"runtime"

	"github.com/dalemusser/termsite/httputil"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/dalemusser/termsite/pantry/version.Version=0.3.0 \
//	                   -X github.com/dalemusser/termsite/pantry/version.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the JSON body of the /version route.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current version info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Handler responds with Get as JSON.
func Handler() http.Handler {
	info := Get()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = httputil.WriteJSON(w, http.StatusOK, info)
	})
}

// String returns a one-line version, e.g. "0.3.0 (abc123, built 2026-01-15T10:30:00Z)".
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}
