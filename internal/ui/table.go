package ui

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/torshproject/torsh/internal/reconcile"
	"github.com/torshproject/torsh/internal/state"
	"github.com/torshproject/torsh/internal/transmission"
)

const progressBarWidth = 14

// render repaints the whole main view from one store snapshot.
func (u *UI) render(snap state.Snapshot) {
	u.renderHeader(snap)
	u.renderTable(snap.Torrents)
	if u.logOpen {
		u.refreshLogPage()
	}
}

// renderTable applies filter and sort, then pushes only changed cells
// through the row cache diff. Row order changes force a full repaint
// because tview rows are positional.
func (u *UI) renderTable(torrents []transmission.Snapshot) {
	visible := Visible(torrents, u.filters)
	Sort(visible, u.sortCol, u.sortDesc)

	rows := make([]reconcile.Row, len(visible))
	order := make([]int64, len(visible))
	for i, t := range visible {
		rows[i] = torrentRow(t)
		order[i] = t.ID
	}

	diff := u.cache.Apply(rows)
	if len(diff.Added) > 0 || len(diff.Removed) > 0 || !sameOrder(u.rowIDs, order) {
		u.repaintRows(visible)
	} else {
		rowOf := make(map[int64]int, len(order))
		for i, id := range order {
			rowOf[id] = i + 1
		}
		for _, upd := range diff.Updated {
			u.table.SetCell(rowOf[upd.ID], upd.Column, dataCell(upd.Column, upd.Text, visible[rowOf[upd.ID]-1].Status))
		}
	}
	u.rowIDs = order

	u.fixSelection(visible)
}

func (u *UI) repaintRows(visible []transmission.Snapshot) {
	for u.table.GetRowCount() > len(visible)+1 {
		u.table.RemoveRow(u.table.GetRowCount() - 1)
	}
	for i, t := range visible {
		row := torrentRow(t)
		for col := 0; col < len(tableHeaders); col++ {
			u.table.SetCell(i+1, col, dataCell(col, row.Cells[col], t.Status))
		}
	}
}

// fixSelection keeps the cursor on the same torrent across repaints and
// falls back to the first visible row when it vanished.
func (u *UI) fixSelection(visible []transmission.Snapshot) {
	if len(visible) == 0 {
		u.selected = 0
		u.renderDetailFor(0)
		return
	}
	for i, t := range visible {
		if t.ID == u.selected {
			u.table.Select(i+1, 0)
			u.renderDetailFor(t.ID)
			return
		}
	}
	u.selected = visible[0].ID
	u.table.Select(1, 0)
	u.renderDetailFor(u.selected)
}

// selectedTorrent returns the snapshot under the cursor.
func (u *UI) selectedTorrent() (transmission.Snapshot, bool) {
	if u.selected == 0 {
		return transmission.Snapshot{}, false
	}
	for _, t := range u.opts.Store.Snapshot().Torrents {
		if t.ID == u.selected {
			return t, true
		}
	}
	return transmission.Snapshot{}, false
}

func torrentRow(t transmission.Snapshot) reconcile.Row {
	row := reconcile.Row{ID: t.ID}
	row.Cells[reconcile.ColID] = strconv.FormatInt(t.ID, 10)
	row.Cells[reconcile.ColName] = truncate(t.Name, 48)
	row.Cells[reconcile.ColProgress] = progressBar(t.Percent, progressBarWidth)
	row.Cells[reconcile.ColETA] = t.ETA
	row.Cells[reconcile.ColDown] = t.RateDown
	row.Cells[reconcile.ColUp] = t.RateUp
	row.Cells[reconcile.ColRatio] = fmt.Sprintf("%.2f", t.Ratio)
	row.Cells[reconcile.ColStatus] = string(t.Status)
	return row
}

func dataCell(col int, text string, status transmission.Status) *tview.TableCell {
	cell := tview.NewTableCell(tview.Escape(text)).SetBackgroundColor(tcell.ColorBlack)
	switch col {
	case reconcile.ColStatus:
		cell.SetText(fmt.Sprintf("[%s]%s[-]", statusColor(status), text))
	case reconcile.ColProgress, reconcile.ColRatio, reconcile.ColDown, reconcile.ColUp, reconcile.ColETA:
		cell.SetAlign(tview.AlignRight)
	}
	if col == reconcile.ColName {
		cell.SetExpansion(1)
	}
	return cell
}

func sameOrder(a, b []int64) bool {
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
