package ui

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/torshproject/torsh/internal/logtail"
)

// logTailLines is how much of the daemon log the log page shows.
const logTailLines = 400

func (u *UI) openLogPage() {
	u.logOpen = true
	u.refreshLogPage()
	u.root.SwitchToPage("log")
	u.app.SetFocus(u.logPage)
}

func (u *UI) closeLogPage() {
	u.logOpen = false
	u.root.SwitchToPage("main")
	u.app.SetFocus(u.table)
}

// refreshLogPage re-reads the daemon log tail; warnings and errors are
// highlighted by the severity logtail already assigned.
func (u *UI) refreshLogPage() {
	lines, err := logtail.Read(u.opts.DaemonLogPath, logTailLines)
	if err != nil {
		u.logPage.SetText("[red]" + tview.Escape(err.Error()) + "[-]")
		return
	}
	if len(lines) == 0 {
		u.logPage.SetText("[gray]log is empty: " + tview.Escape(u.opts.DaemonLogPath) + "[-]")
		return
	}

	var b strings.Builder
	for _, line := range lines {
		escaped := tview.Escape(line.Text)
		switch line.Severity {
		case logtail.SeverityError:
			b.WriteString("[red]" + escaped + "[-]")
		case logtail.SeverityWarn:
			b.WriteString("[yellow]" + escaped + "[-]")
		default:
			b.WriteString(escaped)
		}
		b.WriteByte('\n')
	}
	u.logPage.SetText(b.String())
	u.logPage.ScrollToEnd()
}
