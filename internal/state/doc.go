// Package state provides the thread-safe store shared between the
// refresh loop and the UI.
//
// The refresh loop is the single writer: after each cycle it calls
// Update with the torrent list, session stats, and limits it fetched, or
// with the error that made the cycle fail. The UI reads cloned snapshots
// on its own schedule and never blocks the loop.
//
// Update keeps the previous data when a cycle fails, so the table keeps
// showing the last good poll while the error and the consecutive-failure
// count surface in the header. Snapshot returns defensive copies; the UI
// can mutate what it received without racing the next poll.
package state
