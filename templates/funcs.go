// templates/funcs.go
package templates

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// {{ "a b" | urlquery }} → "a+b"
		"urlquery": url.QueryEscape,
		// Mark a string as safe HTML (use sparingly!)
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },

		"lower":  strings.ToLower,
		"upper":  strings.ToUpper,
		"join":   strings.Join,
		"printf": func(f string, a ...any) string { return fmt.Sprintf(f, a...) },
		// {{ "x" | default "fallback" }}
		"default": func(def, v any) any {
			if v == nil || v == "" {
				return def
			}
			return v
		},

		// {{ .Page | toJSON }} → JSON for use in JavaScript
		"toJSON": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},
	}
}
