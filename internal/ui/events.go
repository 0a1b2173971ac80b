package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/torshproject/torsh/internal/reconcile"
)

// formatEvents turns one cycle's notifications into a single notice
// line.
func formatEvents(events []reconcile.Event) string {
	parts := make([]string, 0, len(events))
	for _, e := range events {
		if s := formatEvent(e); s != "" {
			parts = append(parts, s)
		}
	}
	return " " + strings.Join(parts, "  ")
}

func formatEvent(e reconcile.Event) string {
	name := tview.Escape(truncate(e.Name, 30))
	switch e.Kind {
	case reconcile.EventConnected:
		return "[green]connection restored[-]"
	case reconcile.EventDisconnected:
		return "[red]connection lost[-]"
	case reconcile.EventRestarted:
		return "[yellow]daemon restarted[-]"
	case reconcile.EventCompleted:
		return fmt.Sprintf("[green]completed: %s[-]", name)
	case reconcile.EventVerified:
		return fmt.Sprintf("[green]verified: %s[-]", name)
	case reconcile.EventAutoRetry:
		return fmt.Sprintf("[yellow]retry #%d: %s[-]", e.Attempt, name)
	case reconcile.EventAutoResume:
		return fmt.Sprintf("[gray]auto-started %d torrents[-]", e.Count)
	case reconcile.EventRefreshError:
		msg := "refresh failed"
		if e.Err != nil {
			msg = truncate(e.Err.Error(), 60)
		}
		return fmt.Sprintf("[red]%s[-]", tview.Escape(msg))
	default:
		return ""
	}
}
