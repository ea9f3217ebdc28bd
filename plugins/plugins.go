// plugins/plugins.go

// Package plugins wires the built-in site extensions: the terminal text
// filters, import map registration for JavaScript assets, and build-time
// verification of the controllers that pages reference.
package plugins

import (
	"context"
	"fmt"
	"html/template"

	"github.com/dalemusser/termsite/behavior"
	"github.com/dalemusser/termsite/filters/ansi"
	"github.com/dalemusser/termsite/filters/wrap"
	"github.com/dalemusser/termsite/hooks"
	"github.com/dalemusser/termsite/importmap"
	"github.com/dalemusser/termsite/pantry/jobs"
	"github.com/dalemusser/termsite/site"
	"go.uber.org/zap"
)

// Hook names, as they appear in errors and logs.
const (
	ImportMapHook   = "javascripts-importmap"
	ControllersHook = "controllers"
)

// Install registers the filters and hooks on s. Controllers found in
// rendered pages are resolved against app, which gets its resolver
// installed here; pool runs the module loads. A nil app or pool gets a
// fresh one.
//
// Call Install before the first build so the filters exist when layouts
// are parsed.
func Install(s *site.Site, app *behavior.Application, pool *jobs.Pool) (*Controllers, error) {
	logger := s.Logger.Named("plugins")
	if app == nil {
		app = behavior.Start(logger)
	}
	if pool == nil {
		pool = jobs.NewPool(s.Settings.RenderWorkers, logger)
	}

	s.Engine.AddFuncs(ansi.Funcs())
	s.Engine.AddFuncs(wrap.New(s.Settings.WrapWidth).Funcs())
	s.Engine.AddFuncs(map[string]any{
		"importmap": func() (template.HTML, error) {
			m, err := s.ImportMap()
			if err != nil {
				return "", err
			}
			return m.Tag()
		},
	})

	s.Hooks.Register(hooks.PreRender, ImportMapHook, hooks.High, RegisterJavaScripts)

	c := &Controllers{
		app:    app,
		strict: s.Settings.StrictControllers,
		logger: logger,
	}
	resolver := behavior.NewResolver(c, pool, logger)
	if err := behavior.Install(app, resolver.Func()); err != nil {
		return nil, fmt.Errorf("install controller resolver: %w", err)
	}
	s.Hooks.Register(hooks.PostRender, ControllersHook, hooks.Normal, c.Verify)
	return c, nil
}

// RegisterJavaScripts adds every .js file under the site's JavaScript
// directory to the import map in site data, so
// _assets/javascripts/controllers/menu_controller.js is importable as
// "./controllers/menu_controller".
func RegisterJavaScripts(_ context.Context, s *site.Site) error {
	entries, err := importmap.Scan(s.FS(), importmap.Options{
		Dir:         s.JavaScriptsPath(),
		URLPrefix:   s.Settings.ImportMapBase,
		Fingerprint: s.Settings.ImportMapFingerprint,
	})
	if err != nil {
		return err
	}
	if err := importmap.Apply(s.Data, entries); err != nil {
		return err
	}
	s.Logger.Debug("javascripts added to import map",
		zap.String("dir", s.JavaScriptsPath()),
		zap.Int("entries", len(entries)))
	return nil
}
