package state

import (
	"errors"
	"testing"
	"time"

	"github.com/torshproject/torsh/internal/transmission"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	stats := &transmission.SessionStats{DownloadSpeed: 2048, ActiveCount: 3}
	torrents := []transmission.Snapshot{{ID: 1, Name: "alpha"}, {ID: 2, Name: "beta"}}

	before := time.Now()
	s.Update(torrents, stats, transmission.SpeedLimits{Down: 500}, nil)

	snap := s.Snapshot()
	if !snap.HasStats || snap.Stats.DownloadSpeed != 2048 {
		t.Fatalf("snapshot stats = %#v, want DownloadSpeed=2048 HasStats=true", snap.Stats)
	}
	if len(snap.Torrents) != 2 || snap.Torrents[0].ID != 1 {
		t.Fatalf("snapshot torrents = %#v, want 2 items", snap.Torrents)
	}
	if snap.Limits.Down != 500 {
		t.Fatalf("Limits.Down = %d, want 500", snap.Limits.Down)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Torrents[0].Name = "mutated"
	snap2 := s.Snapshot()
	if snap2.Torrents[0].Name != "alpha" {
		t.Fatalf("Snapshot should clone torrents; got %q want alpha", snap2.Torrents[0].Name)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update([]transmission.Snapshot{{ID: 1}}, &transmission.SessionStats{ActiveCount: 1}, transmission.SpeedLimits{}, nil)

	origErr := errors.New("boom")
	s.Update(nil, nil, transmission.SpeedLimits{}, origErr)

	snap := s.Snapshot()
	if len(snap.Torrents) != 1 || snap.Torrents[0].ID != 1 {
		t.Fatalf("torrents changed on error: got %#v", snap.Torrents)
	}
	if !snap.HasStats || snap.Stats.ActiveCount != 1 {
		t.Fatalf("stats changed on error: got %#v", snap.Stats)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if snap.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
}

func TestStore_FailureStreakAndRecovery(t *testing.T) {
	var s Store

	err := errors.New("down")
	s.Update(nil, nil, transmission.SpeedLimits{}, err)
	s.Update(nil, nil, transmission.SpeedLimits{}, err)
	if snap := s.Snapshot(); !snap.IsOffline() {
		t.Fatalf("IsOffline() = false after %d failures, want true", snap.ConsecutiveFailures)
	}

	s.Update(nil, &transmission.SessionStats{}, transmission.SpeedLimits{}, nil)
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d after success, want 0", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true after recovery")
	}
}

func TestStore_ConnectionAndDisk(t *testing.T) {
	var s Store

	s.SetConnected(true)
	s.SetDisk(10<<30, 100<<30)
	snap := s.Snapshot()
	if !snap.Connected {
		t.Fatal("Connected = false, want true")
	}
	if snap.DiskFree != 10<<30 || snap.DiskTotal != 100<<30 {
		t.Fatalf("disk = (%d, %d), want (10GiB, 100GiB)", snap.DiskFree, snap.DiskTotal)
	}
}
