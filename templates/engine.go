// templates/engine.go

// Package templates renders site pages inside layouts.
//
// Layouts are parsed once into a shared base. Each page is rendered on its
// own clone of that base with the page body defined as "content", so pages
// never see each other's definitions.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// NoLayout is the front matter value that renders a page without a layout.
const NoLayout = "none"

// Engine holds the compiled layouts and the function map.
type Engine struct {
	mu     sync.Mutex
	funcs  template.FuncMap
	base   *template.Template
	layout map[string]struct{}
	Logger *zap.Logger
}

// New creates an Engine with the built-in helpers.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		funcs:  Funcs(),
		layout: map[string]struct{}{},
		Logger: logger,
	}
}

// AddFuncs merges fm into the engine's functions. Call before LoadLayouts.
func (e *Engine) AddFuncs(fm map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range fm {
		e.funcs[k] = v
	}
}

// LoadLayouts parses every file matching patterns in fsys. Each file becomes
// a layout named after its base name without extension, so
// _layouts/default.gohtml is the "default" layout. Layouts call
// {{ template "content" . }} where the page body goes.
func (e *Engine) LoadLayouts(fsys fs.FS, patterns ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	root := template.New("root").Funcs(e.funcs)
	files, err := globAll(fsys, patterns)
	if err != nil {
		return err
	}
	sort.Strings(files)

	e.layout = map[string]struct{}{}
	for _, p := range files {
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read layout %s: %w", p, err)
		}
		name := layoutName(p)
		if _, err := root.New(name).Parse(string(b)); err != nil {
			return fmt.Errorf("parse layout %s: %w", p, err)
		}
		e.layout[name] = struct{}{}
		e.Logger.Debug("layout compiled", zap.String("layout", name), zap.String("file", p))
	}
	if len(files) == 0 {
		e.Logger.Warn("no layouts matched", zap.Strings("patterns", patterns))
	}

	e.base = root
	return nil
}

// HasLayout reports whether a layout with that name was loaded.
func (e *Engine) HasLayout(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.layout[name]
	return ok
}

// RenderPage executes body (a template) as "content" inside layout and
// writes the result to w. An empty layout or NoLayout renders the body alone.
// name identifies the page in errors.
func (e *Engine) RenderPage(w io.Writer, name, layout, body string, data any) error {
	t, err := e.pageTemplate(name, body)
	if err != nil {
		return err
	}

	entry := layout
	if entry == "" || entry == NoLayout {
		entry = "content"
	} else if t.Lookup(entry) == nil {
		return fmt.Errorf("page %s: layout %q not found", name, layout)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, entry, data); err != nil {
		return fmt.Errorf("page %s: %w", name, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (e *Engine) pageTemplate(name, body string) (*template.Template, error) {
	e.mu.Lock()
	base := e.base
	if base == nil {
		base = template.New("root").Funcs(e.funcs)
		e.base = base
	}
	clone, err := base.Clone()
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("clone layouts: %w", err)
	}

	if _, err := clone.New("content").Parse(body); err != nil {
		return nil, fmt.Errorf("parse page %s: %w", name, err)
	}
	return clone, nil
}

func layoutName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func globAll(filesystem fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(filesystem, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}
