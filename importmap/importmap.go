// importmap/importmap.go

// Package importmap registers every JavaScript file under an assets
// directory into the site's import map, so that a file such as
// controllers/menu_controller.js is importable as
// "./controllers/menu_controller".
package importmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/dalemusser/termsite/pantry/assets"
)

// DataKey is the site data key holding the import map ("_data/importmap.yml").
const DataKey = "importmap"

// Options controls how files are turned into import map entries.
type Options struct {
	// Dir is the directory scanned for *.js files, relative to the site
	// root (e.g. "_assets/javascripts").
	Dir string
	// URLPrefix is prepended to every generated address. Empty keeps the
	// addresses relative ("_assets/javascripts/application.js").
	URLPrefix string
	// Fingerprint appends "?v=<content hash>" to every generated address.
	Fingerprint bool
}

// Entry is one generated import map entry.
type Entry struct {
	// Specifier is the import name, e.g. "./controllers/menu_controller".
	Specifier string
	// URL is the address the browser fetches.
	URL string
	// File is the file path inside the scanned filesystem.
	File string
}

// Map is the JSON shape of an import map.
type Map struct {
	Imports map[string]string            `json:"imports"`
	Scopes  map[string]map[string]string `json:"scopes,omitempty"`
}

// Scan walks opts.Dir in fsys and returns one Entry per .js file, sorted by path.
// A missing directory yields no entries.
func Scan(fsys fs.FS, opts Options) ([]Entry, error) {
	dir := strings.Trim(path.Clean(opts.Dir), "/")
	if dir == "" {
		dir = "."
	}

	var entries []Entry
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || path.Ext(p) != ".js" {
			return nil
		}

		rel := p
		if dir != "." {
			rel = strings.TrimPrefix(p, dir+"/")
		}
		e := Entry{
			Specifier: "./" + strings.TrimSuffix(rel, ".js"),
			URL:       joinURL(opts.URLPrefix, p),
			File:      p,
		}
		if opts.Fingerprint {
			e.URL = assets.Versioned(fsys, p, e.URL)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].File < entries[j].File })
	return entries, nil
}

func joinURL(prefix, p string) string {
	if prefix == "" {
		return p
	}
	return strings.TrimSuffix(prefix, "/") + "/" + p
}

// Apply merges entries into data[DataKey]["imports"], creating either level
// when missing. Generated entries replace existing keys of the same name;
// every other key is kept.
func Apply(data map[string]any, entries []Entry) error {
	raw, ok := data[DataKey]
	if !ok || raw == nil {
		raw = map[string]any{}
		data[DataKey] = raw
	}
	im, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("site data %q: expected a mapping, got %T", DataKey, raw)
	}

	rawImports, ok := im["imports"]
	if !ok || rawImports == nil {
		rawImports = map[string]any{}
		im["imports"] = rawImports
	}
	imports, ok := rawImports.(map[string]any)
	if !ok {
		return fmt.Errorf("site data %q.imports: expected a mapping, got %T", DataKey, rawImports)
	}

	for _, e := range entries {
		imports[e.Specifier] = e.URL
	}
	return nil
}

// FromData reads the import map out of site data. Missing data gives an
// empty map.
func FromData(data map[string]any) (*Map, error) {
	m := &Map{Imports: map[string]string{}}

	raw, ok := data[DataKey]
	if !ok || raw == nil {
		return m, nil
	}
	im, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("site data %q: expected a mapping, got %T", DataKey, raw)
	}

	imports, err := stringMap(im["imports"])
	if err != nil {
		return nil, fmt.Errorf("site data %q.imports: %w", DataKey, err)
	}
	for k, v := range imports {
		m.Imports[k] = v
	}

	if rawScopes, ok := im["scopes"].(map[string]any); ok {
		m.Scopes = make(map[string]map[string]string, len(rawScopes))
		for scope, v := range rawScopes {
			sm, err := stringMap(v)
			if err != nil {
				return nil, fmt.Errorf("site data %q.scopes[%q]: %w", DataKey, scope, err)
			}
			m.Scopes[scope] = sm
		}
	}
	return m, nil
}

func stringMap(raw any) (map[string]string, error) {
	out := map[string]string{}
	if raw == nil {
		return out, nil
	}
	in, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", raw)
	}
	for k, v := range in {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("key %q: expected a string address, got %T", k, v)
		}
		out[k] = s
	}
	return out, nil
}

// Lookup returns the address mapped to specifier.
func (m *Map) Lookup(specifier string) (string, bool) {
	if m == nil {
		return "", false
	}
	u, ok := m.Imports[specifier]
	return u, ok
}

// JSON returns the indented JSON form of the map. HTML-significant
// characters are escaped so the output is safe inside a <script> element.
func (m *Map) JSON() ([]byte, error) {
	out := m
	if out == nil || out.Imports == nil {
		out = &Map{Imports: map[string]string{}}
		if m != nil {
			out.Scopes = m.Scopes
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Tag renders the map as a <script type="importmap"> element.
func (m *Map) Tag() (template.HTML, error) {
	b, err := m.JSON()
	if err != nil {
		return "", err
	}
	return template.HTML(`<script type="importmap">` + "\n" + string(b) + "\n</script>"), nil
}
