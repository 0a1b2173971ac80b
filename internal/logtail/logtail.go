package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Severity classifies one daemon log line so the viewer can highlight
// problems without re-parsing text.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

// Line is one classified line of transmission-daemon output.
type Line struct {
	Text     string
	Severity Severity
}

// Read returns at most maxLines classified lines from the end of the
// file at path. A missing file yields no lines and no error; the daemon
// simply has not logged yet.
func Read(path string, maxLines int) ([]Line, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]Line, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		text := scanner.Text()
		ring[idx] = Line{Text: text, Severity: classify(text)}
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]Line, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// classify maps the daemon's level markers onto a Severity. Transmission
// writes "Error:"/"ERR" and "Warn:"/"WRN" tokens depending on version;
// matching is case-insensitive and loose enough to cover both.
func classify(text string) Severity {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "err:") ||
		strings.Contains(lower, "fatal") || strings.Contains(lower, "couldn't"):
		return SeverityError
	case strings.Contains(lower, "warn") || strings.Contains(lower, "wrn:"):
		return SeverityWarn
	default:
		return SeverityInfo
	}
}
