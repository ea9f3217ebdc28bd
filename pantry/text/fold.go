// text/fold.go

// Package text normalizes user-supplied names before lookup.
package text

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// chainPool avoids per-call allocations of the NFD → strip Mn → NFC pipeline.
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		)
	},
}

// Fold trims, lowercases and strips combining diacritics.
// It does not guarantee ASCII; characters like "ø" or "ß" remain.
// Returns "" for blank input.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if isASCIIAndLower(s) {
		return s
	}

	s = strings.ToLower(s)

	t := chainPool.Get().(transform.Transformer)
	defer func() {
		t.Reset()
		chainPool.Put(t)
	}()

	out, _, _ := transform.String(t, s)
	return out
}

// Key folds s and turns runs of spaces and hyphens into one underscore, so
// "Cross Out", "cross-out" and "cross_out" share a key.
func Key(s string) string {
	f := Fold(s)
	if f == "" {
		return ""
	}
	return strings.Join(strings.FieldsFunc(f, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || unicode.IsSpace(r)
	}), "_")
}

// isASCIIAndLower reports whether s contains only ASCII bytes and no A..Z.
func isASCIIAndLower(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x80 {
			return false
		}
		if b >= 'A' && b <= 'Z' {
			return false
		}
	}
	return true
}
