package ui

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// Interval bounds for the bracket keys.
const (
	minRefreshInterval = 800 * time.Millisecond
	maxRefreshInterval = 10 * time.Second
	refreshStep        = 500 * time.Millisecond
)

func (u *UI) bindKeys() {
	u.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			u.app.Stop()
			return nil
		}

		// Modal widgets get their own input.
		if u.ModalOpen() {
			return event
		}

		if u.logOpen {
			switch {
			case event.Key() == tcell.KeyESC,
				event.Key() == tcell.KeyRune && (event.Rune() == 'l' || event.Rune() == 'q'):
				u.closeLogPage()
				return nil
			}
			return event
		}

		if event.Key() != tcell.KeyRune {
			return event
		}

		switch r := event.Rune(); r {
		case 'q':
			u.app.Stop()
		case 'a':
			u.showAddModal()
		case ' ':
			u.togglePause()
		case 'd':
			u.confirmDelete(true)
		case 'x':
			u.confirmDelete(false)
		case 'v':
			u.verifySelected()
		case 'g':
			u.showMoveModal()
		case 's':
			u.showGlobalSpeedModal()
		case 't':
			u.showTorrentSpeedModal()
		case 'p':
			u.showPriorityModal()
		case '/':
			u.showFilterModal()
		case 'c':
			u.filters.Status = cycleValue(statusFilterOrder, u.filters.Status)
			u.afterFilterChange("status: " + u.filters.Status)
		case 'o':
			u.filters.Progress = cycleValue(progressFilterOrder, u.filters.Progress)
			u.afterFilterChange("progress: " + u.filters.Progress)
		case '1', '2', '3', '4', '5', '6', '7', '8':
			u.setSort(int(r - '0'))
		case '[':
			u.adjustInterval(refreshStep)
		case ']':
			u.adjustInterval(-refreshStep)
		case 'j':
			u.moveSelection(1)
		case 'k':
			u.moveSelection(-1)
		case 'G':
			u.moveSelectionEnd()
		case 'r':
			u.opts.Loop.RefreshNow()
		case 'l':
			u.openLogPage()
		case '?':
			u.showHelpModal()
		default:
			return event
		}
		return nil
	})
}

// setSort selects a 1-based sort column; pressing the active column
// again flips the direction.
func (u *UI) setSort(col int) {
	if u.sortCol == col {
		u.sortDesc = !u.sortDesc
	} else {
		u.sortCol = col
		u.sortDesc = false
	}
	u.persistUI()
	u.render(u.opts.Store.Snapshot())
}

func (u *UI) afterFilterChange(label string) {
	u.persistUI()
	u.render(u.opts.Store.Snapshot())
	u.flash("[fuchsia]" + label + "[-]")
}

func (u *UI) adjustInterval(delta time.Duration) {
	next := u.opts.Loop.Interval() + delta
	if next < minRefreshInterval {
		next = minRefreshInterval
	}
	if next > maxRefreshInterval {
		next = maxRefreshInterval
	}
	u.opts.Loop.SetInterval(next)
	u.persistUI()
	u.render(u.opts.Store.Snapshot())
}

func (u *UI) moveSelection(delta int) {
	if len(u.rowIDs) == 0 {
		return
	}
	row, _ := u.table.GetSelection()
	row += delta
	if row < 1 {
		row = 1
	}
	if row > len(u.rowIDs) {
		row = len(u.rowIDs)
	}
	u.table.Select(row, 0)
}

func (u *UI) moveSelectionEnd() {
	if len(u.rowIDs) == 0 {
		return
	}
	u.table.Select(len(u.rowIDs), 0)
}
