// Package app wires the pieces of torsh together: it loads the config,
// starts the daemon supervisor, runs the refresh loop, and hands the
// shared store to the UI. The loop is the only writer of torrent state;
// the UI renders snapshots and sends user actions back through the
// gateway.
package app
