package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var tableHeaders = []string{"ID", "Name", "Progress", "ETA", "Down", "Up", "Ratio", "Status"}

func (u *UI) buildLayout() {
	// Single-line borders everywhere, including focused widgets.
	tview.Borders.HorizontalFocus = tview.Borders.Horizontal
	tview.Borders.VerticalFocus = tview.Borders.Vertical
	tview.Borders.TopLeftFocus = tview.Borders.TopLeft
	tview.Borders.TopRightFocus = tview.Borders.TopRight
	tview.Borders.BottomLeftFocus = tview.Borders.BottomLeft
	tview.Borders.BottomRightFocus = tview.Borders.BottomRight
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack

	u.header = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	u.header.SetBackgroundColor(tcell.ColorBlack)

	u.notice = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	u.notice.SetBackgroundColor(tcell.ColorBlack)

	u.table = tview.NewTable()
	u.table.SetBorder(true).SetTitle(" [::b]Torrents[::-] ")
	u.table.SetBorderColor(tcell.ColorSlateGray)
	u.table.SetBackgroundColor(tcell.ColorBlack)
	u.table.SetSelectable(true, false)
	u.table.SetFixed(1, 0)
	u.table.SetSelectionChangedFunc(func(row, _ int) {
		if row >= 1 && row-1 < len(u.rowIDs) {
			u.selected = u.rowIDs[row-1]
			u.renderDetailFor(u.selected)
		}
	})
	for col, title := range tableHeaders {
		u.table.SetCell(0, col, headerCell(title))
	}

	u.detail = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	u.detail.SetBorder(true).SetTitle(" [::b]Details[::-] ")
	u.detail.SetBorderColor(tcell.ColorSlateGray)
	u.detail.SetBackgroundColor(tcell.ColorBlack)

	u.footer = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	u.footer.SetBackgroundColor(tcell.ColorBlack)
	u.footer.SetText(keyHints)

	u.logPage = tview.NewTextView().SetDynamicColors(true)
	u.logPage.SetBorder(true).SetTitle(" [::b]Daemon Log[::-] ")
	u.logPage.SetBorderColor(tcell.ColorSlateGray)
	u.logPage.SetBackgroundColor(tcell.ColorBlack)
	u.logPage.ScrollToEnd()

	body := tview.NewFlex().
		AddItem(u.table, 0, 3, true).
		AddItem(u.detail, 0, 2, false)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(u.header, 1, 0, false).
		AddItem(u.notice, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(u.footer, 1, 0, false)

	u.root = tview.NewPages().
		AddPage("main", main, true, true).
		AddPage("log", u.logPage, true, false)
}

func headerCell(title string) *tview.TableCell {
	return tview.NewTableCell("[::b]" + title).
		SetSelectable(false).
		SetTextColor(tcell.ColorWhite).
		SetBackgroundColor(tcell.ColorBlack)
}

const keyHints = "[gray]a[-]dd  [gray]space[-] pause  [gray]d[-]el  [gray]x[-] del-keep  [gray]v[-]erify  [gray]g[-] move  " +
	"[gray]s[-]/[gray]t[-] limits  [gray]p[-]riority  [gray]/[-] [gray]c[-] [gray]o[-] filter  [gray]1-8[-] sort  " +
	"[gray]brackets[-] interval  [gray]l[-]og  [gray]r[-]efresh  [gray]?[-] help  [gray]q[-]uit"
