package text

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"red", "red"},
		{" Red ", "red"},
		{"MAGENTA", "magenta"},
		{"Crème", "creme"},
		{"Øre", "øre"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cross_out", "cross_out"},
		{"Cross Out", "cross_out"},
		{"cross-out", "cross_out"},
		{"  bright -- red ", "bright_red"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
