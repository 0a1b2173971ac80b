// Package daemon supervises a local transmission-daemon: it detects a
// running instance, installs the binary through the host package manager
// when permitted, resolves port conflicts, and launches the daemon
// detached with its output captured in a log file.
package daemon
