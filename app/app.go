// app/app.go

// Package app assembles a configured site with its plugins, and runs the
// build and the dev server for the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/dalemusser/termsite/behavior"
	"github.com/dalemusser/termsite/config"
	"github.com/dalemusser/termsite/hooks"
	"github.com/dalemusser/termsite/importmap"
	"github.com/dalemusser/termsite/logging"
	"github.com/dalemusser/termsite/metrics"
	"github.com/dalemusser/termsite/pantry/fileserver"
	"github.com/dalemusser/termsite/pantry/health"
	"github.com/dalemusser/termsite/pantry/jobs"
	"github.com/dalemusser/termsite/pantry/livereload"
	"github.com/dalemusser/termsite/pantry/pprof"
	"github.com/dalemusser/termsite/pantry/storage"
	"github.com/dalemusser/termsite/pantry/version"
	"github.com/dalemusser/termsite/plugins"
	"github.com/dalemusser/termsite/publish"
	"github.com/dalemusser/termsite/router"
	"github.com/dalemusser/termsite/server"
	"github.com/dalemusser/termsite/site"
	"github.com/dalemusser/termsite/templates"
	"github.com/dalemusser/termsite/watch"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// App is a site wired with the built-in plugins.
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Site        *site.Site
	Controllers *plugins.Controllers

	reload *livereload.Hub

	mu       sync.Mutex
	built    bool
	buildErr error
}

// Setup runs the startup sequence shared by every command:
//
//  1. Bootstrap logger
//  2. Load config (files, env, explicit flags)
//  3. Build the final logger from config
//  4. Register default metrics
//  5. Assemble the site and its plugins
func Setup(flags *pflag.FlagSet) (*App, error) {
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()

	cfg, err := config.Load(bootstrap, flags)
	if err != nil {
		return nil, err
	}

	logger, err := logging.BuildLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", zap.String("config", cfg.Dump()))

	metrics.RegisterDefault(logger)
	return New(cfg, logger)
}

// New assembles the site for cfg.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := site.New(cfg.Build, templates.New(logger.Named("templates")), &hooks.Registry[*site.Site]{}, logger.Named("site"))

	app := behavior.Start(logger.Named("controllers"))
	pool := jobs.NewPool(cfg.Build.RenderWorkers, logger.Named("jobs"))
	c, err := plugins.Install(s, app, pool)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Logger: logger, Site: s, Controllers: c}, nil
}

// Build builds the site once.
func (a *App) Build(ctx context.Context) error {
	err := a.Site.Build(ctx)
	a.mu.Lock()
	a.built, a.buildErr = true, err
	a.mu.Unlock()
	return err
}

func (a *App) checkBuild(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.built {
		return errors.New("site not built")
	}
	return a.buildErr
}

func (a *App) checkDestination(context.Context) error {
	fi, err := os.Stat(a.Config.Build.Destination)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", a.Config.Build.Destination)
	}
	return nil
}

// ImportMap reads the site and returns its import map with the JavaScript
// assets registered, without rendering or writing anything.
func (a *App) ImportMap(ctx context.Context) (*importmap.Map, error) {
	if err := a.Site.Read(ctx); err != nil {
		return nil, err
	}
	if err := a.Site.Hooks.Trigger(ctx, hooks.PostRead, a.Site); err != nil {
		return nil, err
	}
	if err := plugins.RegisterJavaScripts(ctx, a.Site); err != nil {
		return nil, err
	}
	return a.Site.ImportMap()
}

// Handler serves the destination directory, /metrics, /healthz and
// /version, plus the live reload endpoint once enabled. In dev it also
// serves runtime profiles.
func (a *App) Handler() http.Handler {
	dest := a.Config.Build.Destination
	notFound := filepath.Join(dest, "404.html")

	r := router.New(a.Config, notFound, a.Logger.Named("http"))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Method(http.MethodGet, "/healthz", health.Handler(map[string]health.Check{
		"build":       a.checkBuild,
		"destination": a.checkDestination,
	}, a.Logger.Named("health")))
	r.Method(http.MethodGet, "/version", version.Handler())
	if a.reload != nil {
		r.Method(http.MethodGet, livereload.Path, a.reload)
	}
	if a.Config.Env == "dev" {
		pprof.Mount(r)
	}

	files := fileserver.Handler(os.DirFS(dest), fileserver.Options{
		CacheControl: "no-cache",
		NotFound:     r.(*chi.Mux).NotFoundHandler(),
	})
	r.Method(http.MethodGet, "/*", files)
	r.Method(http.MethodHead, "/*", files)
	return r
}

// LiveReloadHook injects the reload script into rendered pages.
const LiveReloadHook = "livereload"

// EnableLiveReload makes every later build inject the live reload script
// into pages and mounts the reload endpoint on Handler. Call it before
// the first Build.
func (a *App) EnableLiveReload() *livereload.Hub {
	if a.reload != nil {
		return a.reload
	}
	a.reload = livereload.NewHub(a.Logger.Named("livereload"))
	a.Site.Hooks.Register(hooks.PostRender, LiveReloadHook, hooks.Low, func(_ context.Context, s *site.Site) error {
		for _, p := range s.Pages {
			p.Output = livereload.Inject(p.Output)
		}
		return nil
	})
	return a.reload
}

// Serve builds the site and serves it until ctx is canceled or the
// process receives SIGINT/SIGTERM. With watch enabled, source changes
// trigger a rebuild and open pages reload.
func (a *App) Serve(ctx context.Context) error {
	if a.Config.HTTP.Watch {
		a.EnableLiveReload()
	}
	if err := a.Build(ctx); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	ctx, cancel := server.WithShutdownSignals(ctx, a.Logger)
	defer cancel()

	if a.reload != nil {
		w, err := watch.New(a.Config.Build.Source, watch.Options{
			Ignore: []string{a.Config.Build.Destination},
		}, a.Logger.Named("watch"))
		if err != nil {
			return err
		}
		defer w.Close()
		defer a.reload.Close()
		go func() {
			_ = w.Run(ctx, a.rebuild)
		}()
		a.Logger.Info("watching for changes", zap.String("source", a.Config.Build.Source))
	}

	if err := server.ListenAndServeWithContext(ctx, a.Config.HTTP, a.Handler(), a.Logger); err != nil {
		a.Logger.Error("server exited with error", zap.Error(err))
		return err
	}
	return nil
}

// rebuild runs after source changes. A failed build leaves the previous
// output in place and reloads nothing.
func (a *App) rebuild(ctx context.Context, paths []string) {
	a.Logger.Info("rebuilding", zap.Int("changed", len(paths)))
	if err := a.Build(ctx); err != nil {
		a.Logger.Error("rebuild failed", zap.Error(err))
		return
	}
	a.reload.Reload(ctx)
}

// Deploy builds the site and publishes the destination directory to the
// configured deploy target.
func (a *App) Deploy(ctx context.Context, dryRun bool) (*publish.Result, error) {
	store, err := a.deployStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.Build(ctx); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	d := a.Config.Deploy
	return publish.Sync(ctx, os.DirFS(a.Config.Build.Destination), store, publish.Options{
		Prefix:  d.DeployPrefix,
		Delete:  d.DeployDelete,
		DryRun:  dryRun,
		Workers: d.DeployWorkers,
	}, a.Logger.Named("publish"))
}

// ErrNoDeployTarget is returned by Deploy when neither deploy_dir nor
// deploy_bucket is set.
var ErrNoDeployTarget = errors.New("no deploy target: set deploy_dir or deploy_bucket")

func (a *App) deployStore(ctx context.Context) (storage.Store, error) {
	d := a.Config.Deploy
	switch {
	case d.DeployDir != "":
		return storage.NewLocal(d.DeployDir)
	case d.DeployBucket != "":
		return storage.NewS3(ctx, storage.S3Config{
			Bucket:          d.DeployBucket,
			Region:          d.DeployRegion,
			AccessKeyID:     d.DeployAccessKeyID,
			SecretAccessKey: d.DeploySecretAccessKey,
			Endpoint:        d.DeployEndpoint,
			UsePathStyle:    d.DeployPathStyle,
		})
	default:
		return nil, ErrNoDeployTarget
	}
}
