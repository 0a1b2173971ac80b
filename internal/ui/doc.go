// Package ui renders the torsh terminal interface with tview.
//
// The UI is read-mostly: the refresh loop pushes state snapshots
// through QueueRedraw, and every user-initiated RPC runs on its own
// goroutine so the event loop never blocks on the daemon. Modals gate
// the refresh loop while open.
package ui
