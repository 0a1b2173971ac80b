// Package logging builds the application logger. The terminal belongs to
// the TUI, so log output goes to a file; every component receives its own
// derived logger at construction time instead of sharing a global.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const defaultLevel = zerolog.InfoLevel

// New opens the log file in append mode and returns a logger writing to
// it plus a close func. A failure to open the file degrades to a silent
// logger rather than an error: logging must never stop the application.
func New(path, level string) (zerolog.Logger, func()) {
	lvl, err := zerolog.ParseLevel(strings.TrimSpace(strings.ToLower(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = defaultLevel
	}

	var out io.Writer = io.Discard
	closeFn := func() {}
	if strings.TrimSpace(path) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				out = file
				closeFn = func() { _ = file.Close() }
			}
		}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return logger, closeFn
}
