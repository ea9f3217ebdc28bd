// modules/modules.go

// Package modules is the module namespace that controller resolution loads
// from. A namespace maps a specifier such as "./controllers/menu_controller"
// to a Module carrying its default export.
//
// Two namespaces are provided. Manifest is an explicit, build-time list of
// specifiers and their Go values. ImportMapImporter is backed by the import
// map generated from the JavaScript assets directory and reads module source
// from the site tree.
package modules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when a specifier does not name a loadable module.
var ErrNotFound = errors.New("module not found")

// Module is one loaded unit of behavior code.
type Module struct {
	// Specifier is the bare name the module was imported by.
	Specifier string
	// URL is where the module lives, as listed in the import map.
	// Empty for manifest modules.
	URL string
	// Source is the module text. Empty for manifest modules.
	Source []byte
	// Default is the module's default export, or nil if it has none.
	Default any
}

// Importer loads a module by specifier.
type Importer interface {
	Import(ctx context.Context, specifier string) (Module, error)
}

// NotFound builds the error returned for a missing specifier.
func NotFound(specifier string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, specifier)
}

// Manifest is an explicit specifier → default export table.
// The zero value is ready to use.
type Manifest struct {
	mu      sync.RWMutex
	exports map[string]any
}

// Register adds or replaces the default export for specifier.
func (m *Manifest) Register(specifier string, def any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exports == nil {
		m.exports = make(map[string]any)
	}
	m.exports[specifier] = def
}

// Import implements Importer.
func (m *Manifest) Import(ctx context.Context, specifier string) (Module, error) {
	if err := ctx.Err(); err != nil {
		return Module{}, err
	}
	m.mu.RLock()
	def, ok := m.exports[specifier]
	m.mu.RUnlock()
	if !ok {
		return Module{}, NotFound(specifier)
	}
	return Module{Specifier: specifier, Default: def}, nil
}

// Specifiers returns the registered specifiers in sorted order.
func (m *Manifest) Specifiers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.exports))
	for s := range m.exports {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
