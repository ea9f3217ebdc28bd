// site/render.go
package site

import (
	"context"
	"strings"

	"github.com/dalemusser/termsite/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultLayout is used for pages that do not name a layout, when it exists.
const DefaultLayout = "default"

// Render renders every page, at most Settings.RenderWorkers at a time.
// The first failure cancels the pages not yet started and is returned.
//
// Templates see two values: .site (the _config.yml keys plus "data" and
// "pages") and .page (the front matter plus "url" and "path").
func (s *Site) Render(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Settings.RenderWorkers)

	siteVars := s.Vars()
	for _, p := range s.Pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.renderPage(p, siteVars)
		})
	}
	return g.Wait()
}

func (s *Site) renderPage(p *Page, siteVars map[string]any) error {
	layout := p.Layout()
	if layout == "" && s.Engine.HasLayout(DefaultLayout) {
		layout = DefaultLayout
	}

	var out strings.Builder
	data := map[string]any{"site": siteVars, "page": p.Vars()}
	if err := s.Engine.RenderPage(&out, p.Path, layout, p.Body, data); err != nil {
		return s.errorf("render: %w", err)
	}
	p.Output = out.String()
	metrics.PageRendered()
	return nil
}

// Vars returns the template view of the site.
func (s *Site) Vars() map[string]any {
	vars := make(map[string]any, len(s.Config)+2)
	for k, v := range s.Config {
		vars[k] = v
	}
	pages := make([]map[string]any, len(s.Pages))
	for i, p := range s.Pages {
		pages[i] = p.Vars()
	}
	vars["data"] = s.Data
	vars["pages"] = pages
	return vars
}

// Vars returns the template view of the page.
func (p *Page) Vars() map[string]any {
	vars := make(map[string]any, len(p.Front)+2)
	for k, v := range p.Front {
		vars[k] = v
	}
	vars["url"] = p.URL
	vars["path"] = p.Path
	return vars
}
