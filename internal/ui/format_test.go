package ui

import (
	"strings"
	"testing"

	"github.com/torshproject/torsh/internal/transmission"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent float64
		width   int
		filled  int
		label   string
	}{
		{0, 10, 0, "  0%"},
		{50, 10, 5, " 50%"},
		{100, 10, 10, "100%"},
		{150, 10, 10, "100%"},
		{-5, 10, 0, "  0%"},
	}
	for _, tt := range tests {
		got := progressBar(tt.percent, tt.width)
		if n := strings.Count(got, "█"); n != tt.filled {
			t.Fatalf("progressBar(%v) filled = %d, want %d", tt.percent, n, tt.filled)
		}
		if !strings.HasSuffix(got, tt.label) {
			t.Fatalf("progressBar(%v) = %q, want suffix %q", tt.percent, got, tt.label)
		}
	}
}

func TestFormatLimitsBadge(t *testing.T) {
	if got := formatLimitsBadge(transmission.SpeedLimits{}); got != "" {
		t.Fatalf("badge = %q, want empty when unlimited", got)
	}
	got := formatLimitsBadge(transmission.SpeedLimits{Down: 1024})
	if !strings.Contains(got, "↓1.0 MiB") || !strings.Contains(got, "↑∞") {
		t.Fatalf("badge = %q, want down limit and unlimited up", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
	got := truncate("a very long torrent name", 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("truncate() = %q, want 10 runes ending in ellipsis", got)
	}
}
