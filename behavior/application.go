// behavior/application.go

// Package behavior is the controller runtime: one Application per site
// holds named controller definitions and, once a resolver is installed,
// loads unknown controllers by name on demand.
package behavior

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrResolverInstalled is returned when a second resolver is installed.
	ErrResolverInstalled = errors.New("controller resolver already installed")
	// ErrNoResolver is returned for unknown controllers when no resolver is installed.
	ErrNoResolver = errors.New("no controller resolver installed")
	// ErrNoDefaultExport is returned when a resolved module has no default export.
	ErrNoDefaultExport = errors.New("controller module has no default export")
)

// Application is the shared controller runtime.
type Application struct {
	mu          sync.RWMutex
	controllers map[string]any
	// resolved marks the identifiers whose definition came from the resolver.
	resolved map[string]struct{}
	resolve  ResolveFunc
	logger      *zap.Logger
}

// Start creates the Application. Construct it once and pass it to whatever
// registers controllers against it.
func Start(logger *zap.Logger) *Application {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("controller application started")
	return &Application{
		controllers: make(map[string]any),
		resolved:    make(map[string]struct{}),
		logger:      logger,
	}
}

// Install wires fn as app's resolver for unknown controllers.
// It may be called once per Application.
func Install(app *Application, fn ResolveFunc) error {
	if app == nil || fn == nil {
		return fmt.Errorf("install resolver: application and resolver are required")
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.resolve != nil {
		return ErrResolverInstalled
	}
	app.resolve = fn
	return nil
}

// Register adds a controller definition under identifier, replacing any
// earlier one. Definitions registered here are kept by Forget.
func (a *Application) Register(identifier string, controller any) {
	a.mu.Lock()
	a.controllers[identifier] = controller
	delete(a.resolved, identifier)
	a.mu.Unlock()
	a.logger.Debug("controller registered", zap.String("identifier", identifier))
}

// Forget drops every definition the resolver supplied, so the next lookup
// loads those controllers again. Static registrations stay. It returns the
// dropped identifiers in sorted order.
func (a *Application) Forget() []string {
	a.mu.Lock()
	out := make([]string, 0, len(a.resolved))
	for id := range a.resolved {
		delete(a.controllers, id)
		out = append(out, id)
	}
	clear(a.resolved)
	a.mu.Unlock()

	sort.Strings(out)
	if len(out) > 0 {
		a.logger.Debug("resolved controllers forgotten", zap.Strings("identifiers", out))
	}
	return out
}

// Registered reports whether identifier has a definition.
func (a *Application) Registered(identifier string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.controllers[identifier]
	return ok
}

// Identifiers returns the registered identifiers in sorted order.
func (a *Application) Identifiers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.controllers))
	for id := range a.controllers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Controller returns the definition for identifier. Unknown identifiers go
// through the installed resolver; a successful result is registered. A
// failed resolution is logged and returned, and nothing is registered.
func (a *Application) Controller(ctx context.Context, identifier string) (any, error) {
	a.mu.RLock()
	c, ok := a.controllers[identifier]
	resolve := a.resolve
	a.mu.RUnlock()
	if ok {
		return c, nil
	}
	if resolve == nil {
		return nil, fmt.Errorf("controller %q: %w", identifier, ErrNoResolver)
	}

	def, err := resolve(ctx, identifier).WaitContext(ctx)
	if err == nil && def == nil {
		err = ErrNoDefaultExport
	}
	if err != nil {
		a.logger.Warn("controller resolution failed",
			zap.String("identifier", identifier),
			zap.String("module", ModulePath(identifier)),
			zap.Error(err))
		return nil, fmt.Errorf("controller %q: %w", identifier, err)
	}

	a.mu.Lock()
	a.controllers[identifier] = def
	a.resolved[identifier] = struct{}{}
	a.mu.Unlock()
	a.logger.Debug("controller resolved", zap.String("identifier", identifier))
	return def, nil
}

// Connect makes sure every identifier has a definition, resolving unknown
// ones concurrently. It returns the joined errors of the failures.
func (a *Application) Connect(ctx context.Context, identifiers ...string) error {
	seen := make(map[string]struct{}, len(identifiers))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, id := range identifiers {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := a.Controller(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errors.Join(errs...)
}
