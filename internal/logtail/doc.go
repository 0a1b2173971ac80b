// Package logtail reads the tail of the transmission-daemon log file
// for display in the TUI. Read scans the file once with a ring buffer,
// so memory stays bounded by the requested line count no matter how
// large the log has grown, and classifies each line by the daemon's
// level markers so the viewer can highlight problems.
package logtail
