package ui

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/rivo/tview"

	"github.com/torshproject/torsh/internal/state"
)

// renderHeader rebuilds the one-line status bar: connection dot, session
// counters, speed limit badge, disk space, refresh interval, and active
// filter indicators.
func (u *UI) renderHeader(snap state.Snapshot) {
	var parts []string

	if snap.Connected {
		parts = append(parts, "[green::b]● torsh[-:-:-]")
	} else {
		parts = append(parts, "[red::b]● torsh[-:-:-]")
		if snap.LastError != nil {
			parts = append(parts, fmt.Sprintf("[red]%s[-]", tview.Escape(truncate(snap.LastError.Error(), 60))))
		} else {
			parts = append(parts, "[red]disconnected[-]")
		}
	}

	if snap.HasStats {
		parts = append(parts,
			fmt.Sprintf("[gray]↓[-] %s [gray]↑[-] %s", formatSpeed(snap.Stats.DownloadSpeed), formatSpeed(snap.Stats.UploadSpeed)),
			fmt.Sprintf("[gray]active[-] %d [gray]paused[-] %d", snap.Stats.ActiveCount, snap.Stats.PausedCount),
		)
	}

	if badge := formatLimitsBadge(snap.Limits); badge != "" {
		parts = append(parts, fmt.Sprintf("[yellow]%s[-]", badge))
	}

	if snap.DiskTotal > 0 {
		parts = append(parts, fmt.Sprintf("[gray]disk[-] %s free", humanize.IBytes(snap.DiskFree)))
	}

	parts = append(parts, fmt.Sprintf("[gray]every[-] %.1fs", u.opts.Loop.Interval().Seconds()))

	if filters := u.filterIndicator(); filters != "" {
		parts = append(parts, filters)
	}

	if !snap.LastUpdated.IsZero() {
		parts = append(parts, fmt.Sprintf("[gray]%s[-]", snap.LastUpdated.Format("15:04:05")))
	}
	if snap.IsOffline() {
		parts = append(parts, fmt.Sprintf("[red]offline (%d fails)[-]", snap.ConsecutiveFailures))
	}

	u.header.SetText(" " + strings.Join(parts, "  "))
}

func (u *UI) filterIndicator() string {
	var tags []string
	if strings.TrimSpace(u.filters.Text) != "" {
		tags = append(tags, fmt.Sprintf("/%s", tview.Escape(u.filters.Text)))
	}
	if u.filters.Status != "" && u.filters.Status != "any" {
		tags = append(tags, u.filters.Status)
	}
	if u.filters.Progress != "" && u.filters.Progress != "any" {
		tags = append(tags, u.filters.Progress)
	}
	if len(tags) == 0 {
		return ""
	}
	return fmt.Sprintf("[fuchsia]filter: %s[-]", strings.Join(tags, " "))
}
