// site/read.go
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the site config file at the source root.
const ConfigFile = "_config.yml"

var (
	pageExts = map[string]bool{".html": true, ".gohtml": true}
	dataExts = map[string]bool{".yml": true, ".yaml": true, ".json": true}
)

// Read loads the site config, data files, pages and layouts, replacing
// anything read before.
func (s *Site) Read(ctx context.Context) error {
	s.Config = map[string]any{}
	s.Data = map[string]any{}
	s.Pages = nil
	s.Static = nil

	if err := s.readConfig(); err != nil {
		return err
	}
	if err := s.readData(ctx); err != nil {
		return err
	}
	if err := s.readPages(ctx); err != nil {
		return err
	}

	dir := s.Settings.LayoutsDir
	if err := s.Engine.LoadLayouts(s.fsys, dir+"/*.html", dir+"/*.gohtml"); err != nil {
		return s.errorf("layouts: %w", err)
	}

	s.Logger.Debug("site read",
		zap.Int("pages", len(s.Pages)),
		zap.Int("static", len(s.Static)),
		zap.Int("data", len(s.Data)))
	return nil
}

func (s *Site) readConfig() error {
	b, err := fs.ReadFile(s.fsys, ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return s.errorf("read %s: %w", ConfigFile, err)
	}
	var cfg map[string]any
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return s.errorf("parse %s: %w", ConfigFile, err)
	}
	if cfg != nil {
		s.Config = cfg
	}
	return nil
}

// readData loads every YAML or JSON file under the data directory. A file
// _data/menus/main.yml ends up at Data["menus"]["main"].
func (s *Site) readData(ctx context.Context) error {
	root := cleanDir(s.Settings.DataDir)
	return s.walk(ctx, root, func(p string, d fs.DirEntry) error {
		if d.IsDir() || !dataExts[path.Ext(p)] {
			return nil
		}
		b, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return s.errorf("read data %s: %w", p, err)
		}
		var v any
		if err := yaml.Unmarshal(b, &v); err != nil {
			return s.errorf("parse data %s: %w", p, err)
		}

		rel := strings.TrimPrefix(p, root+"/")
		keys := strings.Split(strings.TrimSuffix(rel, path.Ext(rel)), "/")
		node := s.Data
		for _, k := range keys[:len(keys)-1] {
			child, ok := node[k].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[k] = child
			}
			node = child
		}
		node[keys[len(keys)-1]] = v
		return nil
	})
}

// readPages collects pages and static files. Directories and files whose
// names start with "_" or "." are skipped, as is the destination when it
// lives inside the source.
func (s *Site) readPages(ctx context.Context) error {
	dest := s.destinationInSource()
	err := s.walk(ctx, ".", func(p string, d fs.DirEntry) error {
		name := d.Name()
		if d.IsDir() {
			if p != "." && (skipName(name) || p == dest) {
				return fs.SkipDir
			}
			return nil
		}
		if skipName(name) || (!strings.Contains(p, "/") && isOwnConfig(name)) {
			return nil
		}
		if !pageExts[path.Ext(p)] {
			s.Static = append(s.Static, p)
			return nil
		}

		page, err := s.readPage(p)
		if err != nil {
			return err
		}
		s.Pages = append(s.Pages, page)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(s.Pages, func(i, j int) bool { return s.Pages[i].Path < s.Pages[j].Path })
	sort.Strings(s.Static)
	return nil
}

func (s *Site) readPage(p string) (*Page, error) {
	src, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		return nil, s.errorf("read page %s: %w", p, err)
	}
	front, body, err := splitFrontMatter(src)
	if err != nil {
		return nil, s.errorf("page %s: %w", p, err)
	}
	if front == nil {
		front = map[string]any{}
	}

	out := strings.TrimSuffix(p, path.Ext(p)) + ".html"
	if link, ok := front["permalink"].(string); ok && link != "" {
		out = strings.TrimPrefix(link, "/")
		if out == "" || strings.HasSuffix(out, "/") {
			out += "index.html"
		}
	}

	url := "/" + out
	if path.Base(out) == "index.html" {
		url = strings.TrimSuffix(url, "index.html")
	}
	return &Page{Path: p, OutPath: out, URL: url, Front: front, Body: body}, nil
}

// splitFrontMatter separates a leading YAML block delimited by "---" lines
// from the body. Sources without one have nil front matter.
func splitFrontMatter(src []byte) (map[string]any, string, error) {
	first, rest, ok := cutLine(src)
	if !ok || string(bytes.TrimRight(first, "\r")) != "---" {
		return nil, string(src), nil
	}

	var block []byte
	for {
		line, next, more := cutLine(rest)
		if string(bytes.TrimRight(line, "\r")) == "---" {
			var front map[string]any
			if err := yaml.Unmarshal(block, &front); err != nil {
				return nil, "", fmt.Errorf("front matter: %w", err)
			}
			return front, string(next), nil
		}
		if !more {
			return nil, "", errors.New("front matter: missing closing ---")
		}
		block = append(block, line...)
		block = append(block, '\n')
		rest = next
	}
}

// cutLine returns the first line of b without its newline. more is false
// when b had no newline.
func cutLine(b []byte) (line, rest []byte, more bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

// walk visits root in the source filesystem. A missing root is not an error.
func (s *Site) walk(ctx context.Context, root string, fn func(p string, d fs.DirEntry) error) error {
	err := fs.WalkDir(s.fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(p, d)
	})
	return err
}

// destinationInSource returns the destination as a source-relative path,
// or "" when it is outside the source.
func (s *Site) destinationInSource() string {
	src, err1 := filepath.Abs(s.Settings.Source)
	dst, err2 := filepath.Abs(s.Settings.Destination)
	if err1 != nil || err2 != nil {
		return ""
	}
	rel, err := filepath.Rel(src, dst)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

func skipName(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

// isOwnConfig reports whether name is a termsite config file (config.yaml
// and friends) which is never published.
func isOwnConfig(name string) bool {
	switch name {
	case "config.yaml", "config.yml", "config.json", "config.toml":
		return true
	}
	return false
}

func cleanDir(dir string) string {
	dir = strings.Trim(path.Clean(filepath.ToSlash(dir)), "/")
	if dir == "" {
		return "."
	}
	return dir
}
