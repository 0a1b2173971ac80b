package ui

import (
	"math"
	"sort"
	"strings"

	"github.com/torshproject/torsh/internal/transmission"
)

// Filters narrow the torrent table. Zero values show everything.
type Filters struct {
	Text     string // case-insensitive name substring
	Status   string // any, active, paused, error
	Progress string // any, done, under50
}

// statusFilterOrder and progressFilterOrder define the cycling sequence
// of the c and o keys.
var (
	statusFilterOrder   = []string{"any", "active", "paused", "error"}
	progressFilterOrder = []string{"any", "done", "under50"}
)

func cycleValue(order []string, current string) string {
	for i, v := range order {
		if v == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// Visible returns the torrents passing all filters, preserving input
// order.
func Visible(torrents []transmission.Snapshot, f Filters) []transmission.Snapshot {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	out := make([]transmission.Snapshot, 0, len(torrents))
	for _, t := range torrents {
		if text != "" && !strings.Contains(strings.ToLower(t.Name), text) {
			continue
		}
		if !statusMatches(t.Status, f.Status) {
			continue
		}
		if !progressMatches(t.Percent, f.Progress) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func statusMatches(status transmission.Status, filter string) bool {
	switch filter {
	case "active":
		return status == transmission.StatusDownloading ||
			status == transmission.StatusSeeding ||
			status == transmission.StatusChecking
	case "paused":
		return status == transmission.StatusStopped || status == transmission.StatusPaused
	case "error":
		return status == transmission.StatusError
	default:
		return true
	}
}

func progressMatches(percent float64, filter string) bool {
	switch filter {
	case "done":
		return percent >= 99.9
	case "under50":
		return percent < 50
	default:
		return true
	}
}

// Sort orders torrents by the 1-based column; column 0 keeps daemon
// order. The sort is stable so equal keys keep their relative position
// across refreshes.
func Sort(torrents []transmission.Snapshot, column int, desc bool) {
	if column < 1 || column > 8 {
		return
	}
	less := lessFunc(column)
	sort.SliceStable(torrents, func(i, j int) bool {
		if desc {
			return less(torrents[j], torrents[i])
		}
		return less(torrents[i], torrents[j])
	})
}

func lessFunc(column int) func(a, b transmission.Snapshot) bool {
	switch column {
	case 2:
		return func(a, b transmission.Snapshot) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case 3:
		return func(a, b transmission.Snapshot) bool { return a.Percent < b.Percent }
	case 4:
		return func(a, b transmission.Snapshot) bool { return etaKey(a) < etaKey(b) }
	case 5:
		return func(a, b transmission.Snapshot) bool { return a.RateDownRaw < b.RateDownRaw }
	case 6:
		return func(a, b transmission.Snapshot) bool { return a.RateUpRaw < b.RateUpRaw }
	case 7:
		return func(a, b transmission.Snapshot) bool { return a.Ratio < b.Ratio }
	case 8:
		return func(a, b transmission.Snapshot) bool { return a.Status < b.Status }
	default:
		return func(a, b transmission.Snapshot) bool { return a.ID < b.ID }
	}
}

// etaKey orders unknown/infinite ETAs (negative, shown as ∞) after every
// finite one.
func etaKey(t transmission.Snapshot) int64 {
	if t.ETASeconds < 0 {
		return math.MaxInt64
	}
	return t.ETASeconds
}
