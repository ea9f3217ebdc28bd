// behavior/resolver.go
package behavior

import (
	"context"

	"github.com/dalemusser/termsite/metrics"
	"github.com/dalemusser/termsite/modules"
	"github.com/dalemusser/termsite/pantry/jobs"
	"go.uber.org/zap"
)

// ModulePath returns the conventional module path for a controller
// identifier: "./controllers/<identifier>_controller". The identifier is
// used as given; an empty one yields "./controllers/_controller".
func ModulePath(identifier string) string {
	return "./controllers/" + identifier + "_controller"
}

// ResolveFunc turns a controller identifier into a deferred default export.
type ResolveFunc func(ctx context.Context, identifier string) *jobs.Future[any]

// Resolver loads controller modules on demand from an Importer.
// It never retries and never tries another path; load errors reach the
// caller unchanged through the returned Future.
type Resolver struct {
	importer modules.Importer
	pool     *jobs.Pool
	logger   *zap.Logger
}

// NewResolver returns a Resolver that runs loads on pool.
// A nil pool gets a default-sized one.
func NewResolver(importer modules.Importer, pool *jobs.Pool, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = jobs.NewPool(0, logger)
	}
	return &Resolver{importer: importer, pool: pool, logger: logger}
}

// Resolve starts loading the module for identifier and returns immediately.
// The Future settles with the module's default export (which may be nil),
// or with the importer's error.
func (r *Resolver) Resolve(ctx context.Context, identifier string) *jobs.Future[any] {
	specifier := ModulePath(identifier)
	r.logger.Debug("resolving controller",
		zap.String("identifier", identifier),
		zap.String("module", specifier))

	return jobs.Submit(r.pool, func() (any, error) {
		mod, err := r.importer.Import(ctx, specifier)
		if err != nil {
			metrics.ControllerResolved(false)
			return nil, err
		}
		metrics.ControllerResolved(true)
		return mod.Default, nil
	})
}

// Func adapts r to a ResolveFunc for Install.
func (r *Resolver) Func() ResolveFunc {
	return r.Resolve
}
