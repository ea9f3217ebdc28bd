package wrap

import (
	"strings"
	"testing"
)

func TestAt(t *testing.T) {
	tests := []struct {
		name  string
		width int
		in    string
		want  string
	}{
		{"fits", 42, "short line", "short line"},
		{"breaks on space", 10, "the quick brown fox", "the quick\nbrown fox"},
		{"long word stays whole", 5, "a verylongword b", "a\nverylongword\nb"},
		{"keeps newlines", 42, "line one\nline two", "line one\nline two"},
		{"zero width uses default", 0, strings.Repeat("word ", 10), "word word word word word word word word\nword word "},
		{"empty", 10, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := At(tt.width, tt.in); got != tt.want {
				t.Errorf("At(%d, %q) = %q, want %q", tt.width, tt.in, got, tt.want)
			}
		})
	}
}

func TestWrapper_DefaultWidth(t *testing.T) {
	w := New(0)
	if w.Width != DefaultWidth {
		t.Fatalf("Width = %d, want %d", w.Width, DefaultWidth)
	}

	in := strings.Repeat("abcd ", 20)
	for _, line := range strings.Split(w.Wrap(in), "\n") {
		if len(line) > DefaultWidth {
			t.Errorf("line %q longer than %d", line, DefaultWidth)
		}
	}
}

func TestWrapper_Funcs(t *testing.T) {
	f := New(8).Funcs()
	wrapFn, ok := f["wrap"].(func(string) string)
	if !ok {
		t.Fatalf("wrap has type %T", f["wrap"])
	}
	if got := wrapFn("one two three"); got != "one two\nthree" {
		t.Errorf("wrap = %q", got)
	}
	if _, ok := f["wrapAt"].(func(int, string) string); !ok {
		t.Errorf("wrapAt has type %T", f["wrapAt"])
	}
}
