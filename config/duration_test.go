package config

import (
	"testing"
	"time"
)

func TestParseDurationFlexible(t *testing.T) {
	const def = 7 * time.Second
	tests := []struct {
		name    string
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{"go duration", "90s", 90 * time.Second, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"seconds string", "120", 120 * time.Second, false},
		{"padded", "  5s ", 5 * time.Second, false},
		{"int", 3, 3 * time.Second, false},
		{"int64", int64(4), 4 * time.Second, false},
		{"float", 1.5, 1500 * time.Millisecond, false},
		{"duration", time.Minute, time.Minute, false},
		{"empty", "", def, false},
		{"nil", nil, def, false},
		{"bool", true, def, false},
		{"garbage", "soon", def, true},
		{"zero", "0s", def, true},
		{"negative seconds", -1, def, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDurationFlexible(tt.raw, def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
