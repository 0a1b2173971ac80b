package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/torshproject/torsh/internal/transmission"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Torrents            []transmission.Snapshot
	Stats               transmission.SessionStats
	HasStats            bool
	Limits              transmission.SpeedLimits
	Connected           bool
	DiskFree            uint64
	DiskTotal           uint64
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the daemon has been unreachable for
// multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot. The poller
// writes, the UI reads cloned copies.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous
// data is kept but the error is recorded for visibility.
func (s *Store) Update(torrents []transmission.Snapshot, stats *transmission.SessionStats, limits transmission.SpeedLimits, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Torrents = cloneTorrents(torrents)
	if stats != nil {
		s.snapshot.Stats = *stats
		s.snapshot.HasStats = true
	} else {
		s.snapshot.HasStats = false
	}
	s.snapshot.Limits = limits
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetConnected records the connection state from the cycle's ping.
func (s *Store) SetConnected(up bool) {
	s.mu.Lock()
	s.snapshot.Connected = up
	s.mu.Unlock()
}

// SetDisk records free and total bytes for the download filesystem.
func (s *Store) SetDisk(free, total uint64) {
	s.mu.Lock()
	s.snapshot.DiskFree = free
	s.snapshot.DiskTotal = total
	s.mu.Unlock()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Torrents = cloneTorrents(s.snapshot.Torrents)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneTorrents(items []transmission.Snapshot) []transmission.Snapshot {
	if len(items) == 0 {
		return nil
	}
	dup := make([]transmission.Snapshot, len(items))
	copy(dup, items)
	return dup
}
