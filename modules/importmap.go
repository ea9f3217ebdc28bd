// modules/importmap.go
package modules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/termsite/importmap"
)

// DefaultExport describes the default export found in a module's source.
type DefaultExport struct {
	// Name is the exported binding, or "default" for an anonymous export.
	Name string
}

var reDefaultExport = regexp.MustCompile(`(?m)^\s*export\s+default\s+(?:async\s+)?(?:(?:class|function\*?)\s+([A-Za-z_$][\w$]*)|([A-Za-z_$][\w$]*)\s*;?\s*$)?`)

// parseDefaultExport returns the default export declared in src, or nil.
func parseDefaultExport(src []byte) *DefaultExport {
	m := reDefaultExport.FindSubmatch(src)
	if m == nil {
		return nil
	}
	switch {
	case len(m[1]) > 0 && string(m[1]) != "extends":
		return &DefaultExport{Name: string(m[1])}
	case len(m[2]) > 0 && !isKeyword(string(m[2])):
		return &DefaultExport{Name: string(m[2])}
	default:
		return &DefaultExport{Name: "default"}
	}
}

func isKeyword(s string) bool {
	switch s {
	case "class", "function", "async", "new":
		return true
	}
	return false
}

// ImportMapImporter loads modules whose addresses come from an import map
// and whose files live in a site filesystem. Loaded modules are cached per
// specifier; a failed load is not cached.
type ImportMapImporter struct {
	fsys      fs.FS
	imports   *importmap.Map
	urlPrefix string

	mu    sync.Mutex
	cache map[string]Module
	loads int
}

// NewImportMapImporter returns an importer over fsys. urlPrefix is the
// prefix that was prepended to generated addresses, so they can be mapped
// back to files.
func NewImportMapImporter(fsys fs.FS, m *importmap.Map, urlPrefix string) *ImportMapImporter {
	return &ImportMapImporter{
		fsys:      fsys,
		imports:   m,
		urlPrefix: urlPrefix,
		cache:     make(map[string]Module),
	}
}

// Import implements Importer.
func (i *ImportMapImporter) Import(ctx context.Context, specifier string) (Module, error) {
	if err := ctx.Err(); err != nil {
		return Module{}, err
	}

	i.mu.Lock()
	if mod, ok := i.cache[specifier]; ok {
		i.mu.Unlock()
		return mod, nil
	}
	i.mu.Unlock()

	addr, ok := i.imports.Lookup(specifier)
	if !ok {
		return Module{}, NotFound(specifier)
	}
	file, ok := i.fileFor(addr)
	if !ok {
		return Module{}, fmt.Errorf("%w: %q maps to non-local address %q", ErrNotFound, specifier, addr)
	}

	src, err := fs.ReadFile(i.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Module{}, fmt.Errorf("%w: %q (%s)", ErrNotFound, specifier, file)
		}
		return Module{}, fmt.Errorf("read module %q: %w", specifier, err)
	}

	mod := Module{Specifier: specifier, URL: addr, Source: src}
	if def := parseDefaultExport(src); def != nil {
		mod.Default = *def
	}

	i.mu.Lock()
	i.cache[specifier] = mod
	i.loads++
	i.mu.Unlock()
	return mod, nil
}

// Loads returns how many modules were read from disk (cache misses).
func (i *ImportMapImporter) Loads() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.loads
}

// fileFor maps an import map address back to a path in the site filesystem.
func (i *ImportMapImporter) fileFor(addr string) (string, bool) {
	if p := strings.TrimSuffix(i.urlPrefix, "/"); p != "" {
		if !strings.HasPrefix(addr, p+"/") {
			return "", false
		}
		addr = strings.TrimPrefix(addr, p+"/")
	}

	u, err := url.Parse(addr)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	file := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if file == "" || !fs.ValidPath(file) {
		return "", false
	}
	return file, true
}
