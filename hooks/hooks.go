// hooks/hooks.go

// Package hooks is a small event registry for the site build. Plugins
// register functions against build events and the builder triggers them
// in priority order.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Event names a point in the build.
type Event string

const (
	// PostRead fires after config, data and pages are read.
	PostRead Event = "post_read"
	// PreRender fires before any page is rendered.
	PreRender Event = "pre_render"
	// PostRender fires after every page is rendered, before anything is written.
	PostRender Event = "post_render"
	// PostWrite fires after the destination directory is written.
	PostWrite Event = "post_write"
)

// Priority orders hooks within one event; higher runs first.
type Priority int

const (
	Low    Priority = 10
	Normal Priority = 20
	High   Priority = 30
)

// Func is a hook body. P is the payload the builder passes (the site).
type Func[P any] func(ctx context.Context, payload P) error

type entry[P any] struct {
	name     string
	priority Priority
	seq      int
	fn       Func[P]
}

// Registry holds hooks for payload type P. The zero value is ready to use.
type Registry[P any] struct {
	mu    sync.RWMutex
	seq   int
	hooks map[Event][]entry[P]
}

// Register adds fn to ev under name (used in errors and logs).
func (r *Registry[P]) Register(ev Event, name string, prio Priority, fn Func[P]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks == nil {
		r.hooks = make(map[Event][]entry[P])
	}
	r.seq++
	r.hooks[ev] = append(r.hooks[ev], entry[P]{name: name, priority: prio, seq: r.seq, fn: fn})
}

// Names returns the hook names for ev in the order they run.
func (r *Registry[P]) Names(ev Event) []string {
	hs := r.ordered(ev)
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.name
	}
	return out
}

// Trigger runs every hook for ev. The first error stops the event and is
// returned wrapped with the event and hook name.
func (r *Registry[P]) Trigger(ctx context.Context, ev Event, payload P) error {
	for _, h := range r.ordered(ev) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.fn(ctx, payload); err != nil {
			return fmt.Errorf("%s hook %q: %w", ev, h.name, err)
		}
	}
	return nil
}

func (r *Registry[P]) ordered(ev Event) []entry[P] {
	r.mu.RLock()
	hs := make([]entry[P], len(r.hooks[ev]))
	copy(hs, r.hooks[ev])
	r.mu.RUnlock()

	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].priority != hs[j].priority {
			return hs[i].priority > hs[j].priority
		}
		return hs[i].seq < hs[j].seq
	})
	return hs
}

// Reset removes every hook. Handy for tests.
func (r *Registry[P]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = nil
}
