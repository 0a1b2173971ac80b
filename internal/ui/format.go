package ui

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/torshproject/torsh/internal/transmission"
)

// progressBar renders percent as a fixed-width bar followed by the
// numeric percentage.
func progressBar(percent float64, width int) string {
	if width < 4 {
		width = 4
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("█", filled))
	b.WriteString(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3.0f%%", b.String(), percent)
}

// statusColor maps a torrent status to its tview color name.
func statusColor(status transmission.Status) string {
	switch status {
	case transmission.StatusDownloading:
		return "green"
	case transmission.StatusSeeding:
		return "aqua"
	case transmission.StatusChecking:
		return "yellow"
	case transmission.StatusQueued:
		return "fuchsia"
	case transmission.StatusError:
		return "red"
	default:
		return "gray"
	}
}

// formatSpeed renders a bytes-per-second figure for the header.
func formatSpeed(bytesPerSec int64) string {
	if bytesPerSec < 0 {
		bytesPerSec = 0
	}
	return humanize.IBytes(uint64(bytesPerSec)) + "/s"
}

// formatLimitsBadge renders the global limit badge; empty when both
// directions are unlimited. Limits are KiB/s.
func formatLimitsBadge(limits transmission.SpeedLimits) string {
	if limits.Down <= 0 && limits.Up <= 0 {
		return ""
	}
	part := func(prefix string, v int64) string {
		if v <= 0 {
			return prefix + "∞"
		}
		return fmt.Sprintf("%s%s", prefix, humanize.IBytes(uint64(v*1024)))
	}
	return fmt.Sprintf("LIMIT %s %s", part("↓", limits.Down), part("↑", limits.Up))
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
