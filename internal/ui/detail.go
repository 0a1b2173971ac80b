package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/torshproject/torsh/internal/transmission"
)

// renderDetailFor paints the detail pane for the given torrent id and
// schedules the slow parts (files, trackers) in the background. id 0
// clears the pane.
func (u *UI) renderDetailFor(id int64) {
	if id == 0 {
		u.detailID = 0
		u.detail.SetText("[gray]no torrent selected[-]")
		return
	}

	t, ok := u.snapshotFor(id)
	if !ok {
		return
	}
	u.detail.SetText(detailText(t))

	if u.detailID != id {
		u.detailID = id
		go u.loadDetailExtras(id)
	}
}

func (u *UI) snapshotFor(id int64) (transmission.Snapshot, bool) {
	for _, t := range u.opts.Store.Snapshot().Torrents {
		if t.ID == id {
			return t, true
		}
	}
	return transmission.Snapshot{}, false
}

// loadDetailExtras fetches files and trackers off the UI goroutine and
// appends them when the selection has not moved on.
func (u *UI) loadDetailExtras(id int64) {
	ctx, cancel := rpcCtx()
	defer cancel()

	files, filesErr := u.opts.Gateway.Files(ctx, id)
	trackers, trackersErr := u.opts.Gateway.Trackers(ctx, id)

	u.app.QueueUpdateDraw(func() {
		if u.detailID != id {
			return
		}
		t, ok := u.snapshotFor(id)
		if !ok {
			return
		}
		var b strings.Builder
		b.WriteString(detailText(t))
		b.WriteString(filesSection(files, filesErr))
		b.WriteString(trackersSection(trackers, trackersErr))
		u.detail.SetText(b.String())
	})
}

func detailText(t transmission.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[::b]%s[::-]\n\n", tview.Escape(t.Name))
	fmt.Fprintf(&b, "[gray]status[-]   [%s]%s[-]\n", statusColor(t.Status), t.Status)
	fmt.Fprintf(&b, "[gray]progress[-] %s\n", progressBar(t.Percent, 20))
	fmt.Fprintf(&b, "[gray]size[-]     %s\n", t.Size)
	fmt.Fprintf(&b, "[gray]eta[-]      %s\n", t.ETA)
	fmt.Fprintf(&b, "[gray]rates[-]    ↓ %s  ↑ %s\n", t.RateDown, t.RateUp)
	fmt.Fprintf(&b, "[gray]ratio[-]    %.2f\n", t.Ratio)
	fmt.Fprintf(&b, "[gray]peers[-]    %d connected, %d seeding, %d leeching\n", t.Peers, t.Seeders, t.Leechers)
	fmt.Fprintf(&b, "[gray]path[-]     %s\n", tview.Escape(t.DownloadDir))
	if !t.Added.IsZero() {
		fmt.Fprintf(&b, "[gray]added[-]    %s\n", t.Added.Format("2006-01-02 15:04"))
	}
	if t.ErrorText != "" {
		fmt.Fprintf(&b, "[red]error    %s[-]\n", tview.Escape(t.ErrorText))
	}
	return b.String()
}

func filesSection(files []transmission.FileInfo, err error) string {
	var b strings.Builder
	b.WriteString("\n[::b]Files[::-]\n")
	if err != nil {
		fmt.Fprintf(&b, "[red]%s[-]\n", tview.Escape(truncate(err.Error(), 60)))
		return b.String()
	}
	if len(files) == 0 {
		b.WriteString("[gray]metadata not available yet[-]\n")
		return b.String()
	}
	for _, f := range files {
		pct := 0.0
		if f.Length > 0 {
			pct = float64(f.BytesCompleted) / float64(f.Length) * 100
		}
		fmt.Fprintf(&b, "%s [gray]%3.0f%%[-] %s\n",
			priorityIcon(f), pct, tview.Escape(truncate(f.Name, 52)))
	}
	return b.String()
}

func priorityIcon(f transmission.FileInfo) string {
	if !f.Wanted {
		return "[gray]⊘[-]"
	}
	switch {
	case f.Priority > 0:
		return "[red]↑[-]"
	case f.Priority < 0:
		return "[blue]↓[-]"
	default:
		return "[gray]·[-]"
	}
}

func trackersSection(trackers []transmission.TrackerInfo, err error) string {
	var b strings.Builder
	b.WriteString("\n[::b]Trackers[::-]\n")
	if err != nil {
		fmt.Fprintf(&b, "[red]%s[-]\n", tview.Escape(truncate(err.Error(), 60)))
		return b.String()
	}
	if len(trackers) == 0 {
		b.WriteString("[gray]none[-]\n")
		return b.String()
	}
	for _, tr := range trackers {
		status := tr.Status
		if status == "" {
			status = "no announce yet"
		}
		fmt.Fprintf(&b, "%s  [gray]%s · %d seeders · %d leechers[-]\n",
			tview.Escape(truncate(tr.Host, 40)), tview.Escape(truncate(status, 30)), tr.Seeders, tr.Leechers)
	}
	return b.String()
}
