package ansi

import (
	"testing"
)

const esc = "\x1b["

func TestColor(t *testing.T) {
	tests := []struct {
		name  string
		color string
		want  string
	}{
		{"named", "red", esc + "31mhi" + esc + "0m"},
		{"named uppercase", "Blue", esc + "34mhi" + esc + "0m"},
		{"default", "default", esc + "39mhi" + esc + "0m"},
		{"hex", "#ff8800", esc + "38;2;255;136;0mhi" + esc + "0m"},
		{"hex no hash", "ff8800", esc + "38;2;255;136;0mhi" + esc + "0m"},
		{"short hex", "#abc", esc + "38;2;170;187;204mhi" + esc + "0m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Color(tt.color, "hi")
			if err != nil {
				t.Fatalf("Color error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Color(%q) = %q, want %q", tt.color, got, tt.want)
			}
		})
	}
}

func TestBackground(t *testing.T) {
	tests := []struct {
		color string
		want  string
	}{
		{"green", esc + "42mhi" + esc + "0m"},
		{"default", esc + "49mhi" + esc + "0m"},
		{"#000000", esc + "48;2;0;0;0mhi" + esc + "0m"},
	}
	for _, tt := range tests {
		got, err := Background(tt.color, "hi")
		if err != nil {
			t.Fatalf("Background(%q) error = %v", tt.color, err)
		}
		if got != tt.want {
			t.Errorf("Background(%q) = %q, want %q", tt.color, got, tt.want)
		}
	}
}

func TestColor_Invalid(t *testing.T) {
	for _, name := range []string{"", "chartreuse", "#12", "#gggggg", "#1234567"} {
		if _, err := Color(name, "hi"); err == nil {
			t.Errorf("Color(%q) should fail", name)
		}
		if _, err := Background(name, "hi"); err == nil {
			t.Errorf("Background(%q) should fail", name)
		}
	}
}

func TestStyles(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		code string
	}{
		{"bright", Bright, "1"},
		{"faint", Faint, "2"},
		{"italic", Italic, "3"},
		{"underline", Underline, "4"},
		{"blink", Blink, "5"},
		{"inverse", Inverse, "7"},
		{"hide", Hide, "8"},
		{"cross_out", CrossOut, "9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := esc + tt.code + "mtext" + esc + "0m"
			if got := tt.fn("text"); got != want {
				t.Errorf("%s = %q, want %q", tt.name, got, want)
			}
		})
	}
}

func TestComposition(t *testing.T) {
	red, err := Color("red", "alert")
	if err != nil {
		t.Fatal(err)
	}
	got := Underline(Bright(red))
	want := esc + "31m" + esc + "1m" + esc + "4malert" + esc + "0m"
	if got != want {
		t.Errorf("composed = %q, want %q", got, want)
	}

	// A reset in the middle does not stop a trailing reset being added.
	mixed := red + " and plain"
	if got := Bright(mixed); got != esc+"31m"+esc+"1malert"+esc+"0m and plain"+esc+"0m" {
		t.Errorf("Bright(mixed) = %q", got)
	}
}

func TestEmptyInput(t *testing.T) {
	if got := Bright(""); got != "" {
		t.Errorf("Bright(\"\") = %q, want empty", got)
	}
	if got, err := Color("red", ""); err != nil || got != "" {
		t.Errorf("Color(red, \"\") = (%q, %v)", got, err)
	}
	if got, err := Background("#ff8800", ""); err != nil || got != "" {
		t.Errorf("Background(#ff8800, \"\") = (%q, %v)", got, err)
	}
	if _, err := Color("chartreuse", ""); err == nil {
		t.Error("Color(chartreuse, \"\") should still fail")
	}
}

func TestStrip(t *testing.T) {
	s, _ := Background("blue", Italic("x"))
	if got := Strip(s); got != "x" {
		t.Errorf("Strip = %q, want x", got)
	}
}

func TestFuncs_Names(t *testing.T) {
	f := Funcs()
	for _, name := range []string{"background", "bg", "blink", "bright", "color", "cross_out", "faint", "hide", "inverse", "italic", "strike", "underline"} {
		if _, ok := f[name]; !ok {
			t.Errorf("filter %q not registered", name)
		}
	}
}
