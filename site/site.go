// site/site.go

// Package site builds a static site: it reads config, data and pages from
// a source directory, renders pages through layouts, and writes the result
// to a destination directory. Plugins take part through hooks.
package site

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/dalemusser/termsite/config"
	"github.com/dalemusser/termsite/hooks"
	"github.com/dalemusser/termsite/importmap"
	"github.com/dalemusser/termsite/metrics"
	"github.com/dalemusser/termsite/templates"
	"go.uber.org/zap"
)

// JavaScriptsDir is the directory under the assets directory holding
// JavaScript modules.
const JavaScriptsDir = "javascripts"

// Page is one renderable source file.
type Page struct {
	// Path is the source path relative to the site root, slash-separated.
	Path string
	// OutPath is the output path relative to the destination.
	OutPath string
	// URL is the page's address on the site.
	URL string
	// Front is the parsed front matter.
	Front map[string]any
	// Body is the template source after the front matter.
	Body string
	// Output is the rendered HTML. Set by Render.
	Output string
}

// Layout returns the layout named in front matter, or "" when the page
// does not name one.
func (p *Page) Layout() string {
	if s, ok := p.Front["layout"].(string); ok {
		return s
	}
	return ""
}

// Site is the state of one build. Hooks receive it as their payload.
type Site struct {
	Settings config.BuildConfig

	// Config is the contents of _config.yml.
	Config map[string]any
	// Data holds the parsed files of the data directory keyed by base name.
	Data map[string]any
	// Pages are the renderable files.
	Pages []*Page
	// Static are the source paths copied verbatim.
	Static []string

	Engine *templates.Engine
	Hooks  *hooks.Registry[*Site]
	Logger *zap.Logger

	fsys fs.FS
}

// New creates a Site for settings. A nil engine or registry gets a fresh one.
func New(settings config.BuildConfig, engine *templates.Engine, reg *hooks.Registry[*Site], logger *zap.Logger) *Site {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = templates.New(logger)
	}
	if reg == nil {
		reg = &hooks.Registry[*Site]{}
	}
	if settings.RenderWorkers <= 0 {
		settings.RenderWorkers = 1
	}
	return &Site{
		Settings: settings,
		Config:   map[string]any{},
		Data:     map[string]any{},
		Engine:   engine,
		Hooks:    reg,
		Logger:   logger,
		fsys:     os.DirFS(settings.Source),
	}
}

// FS returns the source filesystem.
func (s *Site) FS() fs.FS { return s.fsys }

// JavaScriptsPath is the source path scanned for JavaScript modules.
func (s *Site) JavaScriptsPath() string {
	return path.Join(s.Settings.AssetsDir, JavaScriptsDir)
}

// ImportMap returns the import map currently held in site data.
func (s *Site) ImportMap() (*importmap.Map, error) {
	return importmap.FromData(s.Data)
}

// Build runs the whole pipeline: read, render, write, with hooks between
// the steps. The build timeout applies when set.
func (s *Site) Build(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveBuild(start, err) }()

	if s.Settings.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Settings.BuildTimeout)
		defer cancel()
	}

	if err := s.Read(ctx); err != nil {
		return err
	}
	if err := s.Hooks.Trigger(ctx, hooks.PostRead, s); err != nil {
		return err
	}
	if err := s.Hooks.Trigger(ctx, hooks.PreRender, s); err != nil {
		return err
	}
	if err := s.Render(ctx); err != nil {
		return err
	}
	if err := s.Hooks.Trigger(ctx, hooks.PostRender, s); err != nil {
		return err
	}
	if err := s.Write(ctx); err != nil {
		return err
	}
	if err := s.Hooks.Trigger(ctx, hooks.PostWrite, s); err != nil {
		return err
	}

	s.Logger.Info("site built",
		zap.String("source", s.Settings.Source),
		zap.String("destination", s.Settings.Destination),
		zap.Int("pages", len(s.Pages)),
		zap.Int("static", len(s.Static)),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Site) errorf(format string, args ...any) error {
	return fmt.Errorf("site %s: "+format, append([]any{s.Settings.Source}, args...)...)
}
