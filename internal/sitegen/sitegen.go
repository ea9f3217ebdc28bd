// internal/sitegen/sitegen.go

// Package sitegen scaffolds a starter site for `termsite new`.
package sitegen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotEmpty is returned when the target directory already has files.
var ErrNotEmpty = errors.New("directory is not empty")

// Scaffold creates a starter site in dir: a config, a layout that loads
// the import map, a page with a controller, and the JavaScript entry
// point with its controller resolver. dir may exist but must be empty.
// It returns the files written, relative to dir.
func Scaffold(dir, title string) ([]string, error) {
	if strings.TrimSpace(title) == "" {
		title = filepath.Base(dir)
	}

	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", dir, err)
	case len(entries) > 0:
		return nil, fmt.Errorf("%s: %w", dir, ErrNotEmpty)
	}

	files := starterFiles(title)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(files[name]), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return names, nil
}

func starterFiles(title string) map[string]string {
	return map[string]string{
		"_config.yml": fmt.Sprintf("title: %q\nprompt: \"$ \"\n", title),

		"_data/importmap.yml": `imports:
  "@hotwired/stimulus": https://cdn.jsdelivr.net/npm/@hotwired/stimulus@3/dist/stimulus.js
  stimulus-resolvers: https://cdn.jsdelivr.net/npm/stimulus-resolvers@1/dist/index.js
`,

		"_layouts/default.html": `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{ .page.title | default .site.title }}</title>
  {{ importmap }}
  <script type="module">import "./application"</script>
</head>
<body>
<pre>{{ template "content" . }}</pre>
</body>
</html>
`,

		"index.html": `---
title: Home
---
{{ .site.prompt }}{{ "whoami" | bright }}
{{ "A site that looks like a terminal. Text is wrapped to the configured width and colored with ANSI codes that the page scripts turn into styles." | wrap }}

<span data-controller="hello">{{ "hello" | color "green" }}</span>
`,

		"_assets/javascripts/application.js": `import { Application } from "@hotwired/stimulus"
import { DynamicControllerResolver } from "stimulus-resolvers"

window.Stimulus = Application.start()

DynamicControllerResolver.install(Stimulus, controllerName => {
  const path = ` + "`./controllers/${controllerName}_controller`" + `
  return import(path).then(controller => controller.default)
})
`,

		"_assets/javascripts/controllers/hello_controller.js": `import { Controller } from "@hotwired/stimulus"

export default class HelloController extends Controller {
  connect() {
    this.element.title = "connected"
  }
}
`,
	}
}
