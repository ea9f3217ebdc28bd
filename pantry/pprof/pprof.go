// pantry/pprof/pprof.go

// Package pprof exposes the runtime profiles of a running dev server, for
// looking into slow builds.
package pprof

import (
	"net/http"
	stdpprof "net/http/pprof"

	"github.com/go-chi/chi/v5"
)

// Prefix is where Mount attaches the profiles.
const Prefix = "/debug/pprof"

// Mount attaches the pprof handlers under Prefix. Named profiles (heap,
// goroutine, allocs, ...) are served by the index handler.
func Mount(r chi.Router) {
	r.Route(Prefix, func(r chi.Router) {
		r.Get("/", stdpprof.Index)
		r.Get("/cmdline", stdpprof.Cmdline)
		r.Get("/profile", stdpprof.Profile)
		r.Get("/trace", stdpprof.Trace)
		r.Method(http.MethodGet, "/symbol", http.HandlerFunc(stdpprof.Symbol))
		r.Method(http.MethodPost, "/symbol", http.HandlerFunc(stdpprof.Symbol))
		r.Get("/{name}", stdpprof.Index)
	})
}
