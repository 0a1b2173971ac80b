package ui

import (
	"testing"

	"github.com/torshproject/torsh/internal/transmission"
)

func torrent(id int64, name string, percent float64, status transmission.Status) transmission.Snapshot {
	return transmission.Snapshot{ID: id, Name: name, Percent: percent, Status: status}
}

func ids(torrents []transmission.Snapshot) []int64 {
	out := make([]int64, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, t.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var sample = []transmission.Snapshot{
	torrent(1, "Debian ISO", 100, transmission.StatusSeeding),
	torrent(2, "ubuntu image", 40, transmission.StatusDownloading),
	torrent(3, "soundtrack", 10, transmission.StatusStopped),
	torrent(4, "broken", 70, transmission.StatusError),
	torrent(5, "archive", 99.95, transmission.StatusChecking),
}

func TestVisibleFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []int64
	}{
		{"no filters", Filters{}, []int64{1, 2, 3, 4, 5}},
		{"text match is case insensitive", Filters{Text: "UBUNTU"}, []int64{2}},
		{"text no match", Filters{Text: "zzz"}, []int64{}},
		{"status active", Filters{Status: "active"}, []int64{1, 2, 5}},
		{"status paused", Filters{Status: "paused"}, []int64{3}},
		{"status error", Filters{Status: "error"}, []int64{4}},
		{"progress done includes 99.9", Filters{Progress: "done"}, []int64{1, 5}},
		{"progress under50", Filters{Progress: "under50"}, []int64{2, 3}},
		{"combined", Filters{Text: "o", Status: "active"}, []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Visible(sample, tt.filters))
			if !equalIDs(got, tt.want) {
				t.Fatalf("Visible() ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortColumns(t *testing.T) {
	base := []transmission.Snapshot{
		{ID: 2, Name: "beta", Percent: 50, ETASeconds: 30, RateDownRaw: 10, Ratio: 2},
		{ID: 1, Name: "Alpha", Percent: 90, ETASeconds: 10, RateDownRaw: 30, Ratio: 1},
		{ID: 3, Name: "gamma", Percent: 10, ETASeconds: 20, RateDownRaw: 20, Ratio: 3},
	}
	tests := []struct {
		name   string
		column int
		desc   bool
		want   []int64
	}{
		{"unsorted keeps order", 0, false, []int64{2, 1, 3}},
		{"by id", 1, false, []int64{1, 2, 3}},
		{"by name case insensitive", 2, false, []int64{1, 2, 3}},
		{"by percent desc", 3, true, []int64{1, 2, 3}},
		{"by eta", 4, false, []int64{1, 3, 2}},
		{"by rate down desc", 5, true, []int64{1, 3, 2}},
		{"by ratio", 7, false, []int64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]transmission.Snapshot, len(base))
			copy(data, base)
			Sort(data, tt.column, tt.desc)
			if got := ids(data); !equalIDs(got, tt.want) {
				t.Fatalf("Sort(col=%d desc=%v) ids = %v, want %v", tt.column, tt.desc, got, tt.want)
			}
		})
	}
}

func TestSortEtaInfiniteLandsLast(t *testing.T) {
	data := []transmission.Snapshot{
		{ID: 1, ETASeconds: -1}, // unknown, rendered as ∞
		{ID: 2, ETASeconds: 45},
		{ID: 3, ETASeconds: -2},
		{ID: 4, ETASeconds: 600},
	}
	Sort(data, 4, false)
	if got := ids(data); !equalIDs(got, []int64{2, 4, 1, 3}) {
		t.Fatalf("Sort(eta) ids = %v, want finite ETAs first, ∞ last", got)
	}

	Sort(data, 4, true)
	if got := ids(data); got[len(got)-1] != 2 {
		t.Fatalf("Sort(eta desc) ids = %v, want shortest ETA last", got)
	}
}

func TestSortStable(t *testing.T) {
	data := []transmission.Snapshot{
		{ID: 5, Percent: 50},
		{ID: 3, Percent: 50},
		{ID: 9, Percent: 50},
	}
	Sort(data, 3, false)
	if got := ids(data); !equalIDs(got, []int64{5, 3, 9}) {
		t.Fatalf("Sort() ids = %v, want stable order preserved", got)
	}
}

func TestCycleValue(t *testing.T) {
	if got := cycleValue(statusFilterOrder, "any"); got != "active" {
		t.Fatalf("cycleValue(any) = %q, want active", got)
	}
	if got := cycleValue(statusFilterOrder, "error"); got != "any" {
		t.Fatalf("cycleValue(error) = %q, want wrap to any", got)
	}
	if got := cycleValue(progressFilterOrder, "bogus"); got != "any" {
		t.Fatalf("cycleValue(bogus) = %q, want reset to any", got)
	}
}
