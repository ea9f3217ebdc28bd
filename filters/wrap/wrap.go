// filters/wrap/wrap.go

// Package wrap provides the word-wrap template filters.
package wrap

import (
	"github.com/mitchellh/go-wordwrap"
)

// DefaultWidth is the line width used when none is configured.
const DefaultWidth = 42

// Wrapper wraps text at a configured default width.
type Wrapper struct {
	Width int
}

// New returns a Wrapper for width; width <= 0 means DefaultWidth.
func New(width int) Wrapper {
	if width <= 0 {
		width = DefaultWidth
	}
	return Wrapper{Width: width}
}

// Wrap wraps s at the default width.
func (w Wrapper) Wrap(s string) string {
	return At(w.Width, s)
}

// At wraps s so lines are at most width columns where possible. Lines
// break on whitespace only, so a word longer than width stays whole.
// Existing newlines are kept. width <= 0 means DefaultWidth.
func At(width int, s string) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return wordwrap.WrapString(s, uint(width))
}

// Funcs returns the filters keyed by their template names:
//
//	{{ .page.summary | wrap }}
//	{{ .page.summary | wrapAt 60 }}
func (w Wrapper) Funcs() map[string]any {
	return map[string]any{
		"wrap":   w.Wrap,
		"wrapAt": At,
	}
}
