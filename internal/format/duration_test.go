package format

import (
	"testing"
	"time"
)

func TestUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{500 * time.Millisecond, "1s"},
		{45 * time.Second, "45s"},
		{12*time.Minute + 3*time.Second, "12m 3s"},
		{4*time.Hour + 12*time.Minute + 30*time.Second, "4h 12m"},
		{3*24*time.Hour + 4*time.Hour, "3d 4h"},
		{-time.Minute, "0s"},
	}
	for _, tt := range tests {
		if got := Uptime(tt.in); got != tt.want {
			t.Errorf("Uptime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"same day later", time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC), "today"},
		{"same day earlier", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), "today"},
		{"next morning", time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), "tomorrow"},
		{"previous evening", time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC), "yesterday"},
		{"three days out", time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC), "in 3 days"},
		{"week past", time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC), "7 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Until(tt.t, now); got != tt.want {
				t.Errorf("Until = %q, want %q", got, tt.want)
			}
		})
	}
}
