// plugins/controllers.go
package plugins

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dalemusser/termsite/behavior"
	"github.com/dalemusser/termsite/modules"
	"github.com/dalemusser/termsite/site"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Controllers checks that every controller named in the rendered pages can
// be resolved. It is also the resolver's module source: each build swaps in
// an importer over that build's import map.
type Controllers struct {
	app    *behavior.Application
	strict bool
	logger *zap.Logger

	mu       sync.Mutex
	importer modules.Importer
}

// Application returns the controller runtime the plugin resolves against.
func (c *Controllers) Application() *behavior.Application { return c.app }

// Import implements modules.Importer over the current build's import map.
func (c *Controllers) Import(ctx context.Context, specifier string) (modules.Module, error) {
	c.mu.Lock()
	imp := c.importer
	c.mu.Unlock()
	if imp == nil {
		return modules.Module{}, modules.NotFound(specifier)
	}
	return imp.Import(ctx, specifier)
}

// Verify is the post_render hook. Unresolvable controllers are logged;
// in strict mode they fail the build. Definitions loaded by earlier builds
// are dropped first, so every build resolves against its own import map.
func (c *Controllers) Verify(ctx context.Context, s *site.Site) error {
	c.app.Forget()

	var ids []string
	seen := map[string]struct{}{}
	for _, p := range s.Pages {
		for _, id := range ControllerIdentifiers(p.Output) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	m, err := s.ImportMap()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.importer = modules.NewImportMapImporter(s.FS(), m, s.Settings.ImportMapBase)
	c.mu.Unlock()

	err = c.app.Connect(ctx, ids...)
	if err == nil {
		c.logger.Info("controllers verified", zap.Strings("controllers", ids))
		return nil
	}
	if c.strict {
		return fmt.Errorf("unresolved controllers: %w", err)
	}
	c.logger.Warn("some controllers could not be resolved", zap.Error(err))
	return nil
}

// ControllerIdentifiers returns the controller identifiers an HTML
// document references through data-controller attributes and the
// controller part of data-action descriptors ("click->menu#toggle").
// The result is in document order without duplicates.
func ControllerIdentifiers(doc string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			_, more := z.TagName()
			for more {
				var key, val []byte
				key, val, more = z.TagAttr()
				switch string(key) {
				case "data-controller":
					for _, id := range strings.Fields(string(val)) {
						add(id)
					}
				case "data-action":
					for _, desc := range strings.Fields(string(val)) {
						add(actionController(desc))
					}
				}
			}
		}
	}
}

// actionController extracts the identifier from an action descriptor of
// the form [event->]identifier#method[:options].
func actionController(desc string) string {
	if _, after, ok := strings.Cut(desc, "->"); ok {
		desc = after
	}
	id, _, ok := strings.Cut(desc, "#")
	if !ok {
		return ""
	}
	return id
}
