package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/torshproject/torsh/internal/reconcile"
	"github.com/torshproject/torsh/internal/state"
	"github.com/torshproject/torsh/internal/transmission"
)

type fakeGateway struct {
	pingErr   error
	torrents  []transmission.Snapshot
	listErr   error
	statsErr  error
	verifyErr error
	started   [][]int64
	verified  [][]int64
	pings     int
}

func (f *fakeGateway) Ping(context.Context) error {
	f.pings++
	return f.pingErr
}

func (f *fakeGateway) ListTorrents(context.Context) ([]transmission.Snapshot, error) {
	return f.torrents, f.listErr
}

func (f *fakeGateway) Stats(context.Context) (transmission.SessionStats, error) {
	return transmission.SessionStats{ActiveCount: len(f.torrents)}, f.statsErr
}

func (f *fakeGateway) SpeedLimits(context.Context) (transmission.SpeedLimits, error) {
	return transmission.SpeedLimits{Down: 100}, nil
}

func (f *fakeGateway) Start(_ context.Context, ids []int64) error {
	f.started = append(f.started, ids)
	return nil
}

func (f *fakeGateway) Verify(_ context.Context, ids []int64) error {
	f.verified = append(f.verified, ids)
	return f.verifyErr
}

type fakeSupervisor struct {
	ensureErr error
	ensured   int
	// onEnsure lets a test bring the fake daemon back up.
	onEnsure func()
}

func (f *fakeSupervisor) Ensure(context.Context) error {
	f.ensured++
	if f.onEnsure != nil {
		f.onEnsure()
	}
	return f.ensureErr
}

func testLoop(gw gateway, sup restarter, restartOnFail bool) (*Loop, *state.Store, *[]reconcile.Event) {
	st := &state.Store{}
	rec := reconcile.New(zerolog.Nop())
	l := NewLoop(gw, sup, rec, st, time.Second, restartOnFail, "/tmp", zerolog.Nop())
	l.sleep = func(context.Context, time.Duration) {}
	l.disk = func(string) (uint64, uint64, error) { return 5 << 30, 10 << 30, nil }

	var events []reconcile.Event
	l.Notify = func(ev []reconcile.Event) { events = append(events, ev...) }
	return l, st, &events
}

func TestCycleUpdatesStore(t *testing.T) {
	gw := &fakeGateway{torrents: []transmission.Snapshot{
		{ID: 1, Name: "alpha", Percent: 50, Status: transmission.StatusDownloading},
	}}
	l, st, _ := testLoop(gw, nil, false)

	l.Cycle(context.Background())

	snap := st.Snapshot()
	if !snap.Connected {
		t.Fatal("Connected = false, want true")
	}
	if len(snap.Torrents) != 1 || snap.Torrents[0].Name != "alpha" {
		t.Fatalf("Torrents = %#v, want alpha", snap.Torrents)
	}
	if !snap.HasStats || snap.Stats.ActiveCount != 1 {
		t.Fatalf("Stats = %#v, want ActiveCount 1", snap.Stats)
	}
	if snap.Limits.Down != 100 {
		t.Fatalf("Limits.Down = %d, want 100", snap.Limits.Down)
	}
	if snap.DiskFree != 5<<30 {
		t.Fatalf("DiskFree = %d, want 5 GiB", snap.DiskFree)
	}
}

func TestCycleIssuesReconcileActions(t *testing.T) {
	gw := &fakeGateway{torrents: []transmission.Snapshot{
		{ID: 1, Name: "idle", Percent: 40, Status: transmission.StatusStopped},
	}}
	l, _, events := testLoop(gw, nil, false)

	l.Cycle(context.Background())

	if len(gw.started) != 1 || gw.started[0][0] != 1 {
		t.Fatalf("started = %v, want [[1]]", gw.started)
	}
	found := false
	for _, e := range *events {
		if e.Kind == reconcile.EventAutoResume {
			found = true
		}
	}
	if !found {
		t.Fatalf("events = %v, want AutoResume", *events)
	}
}

func TestCycleNotifiesVerifyOnlyOnSuccess(t *testing.T) {
	completing := func() []transmission.Snapshot {
		return []transmission.Snapshot{
			{ID: 7, Name: "iso", Percent: 95, Status: transmission.StatusDownloading},
		}
	}
	complete := func() []transmission.Snapshot {
		return []transmission.Snapshot{
			{ID: 7, Name: "iso", Percent: 100, Status: transmission.StatusSeeding},
		}
	}

	gw := &fakeGateway{torrents: completing(), verifyErr: errors.New("daemon busy")}
	l, _, events := testLoop(gw, nil, false)
	l.Cycle(context.Background())

	gw.torrents = complete()
	l.Cycle(context.Background())

	if len(gw.verified) != 1 {
		t.Fatalf("verify calls = %v, want one attempt", gw.verified)
	}
	for _, e := range *events {
		if e.Kind == reconcile.EventVerified {
			t.Fatalf("events = %v, want no Verified after failed verify RPC", *events)
		}
	}

	// A fresh torrent completing while the daemon accepts the verify is
	// announced, with the torrent's name attached.
	gw2 := &fakeGateway{torrents: completing()}
	l2, _, events2 := testLoop(gw2, nil, false)
	l2.Cycle(context.Background())
	gw2.torrents = complete()
	l2.Cycle(context.Background())

	var verified []reconcile.Event
	for _, e := range *events2 {
		if e.Kind == reconcile.EventVerified {
			verified = append(verified, e)
		}
	}
	if len(verified) != 1 || verified[0].TorrentID != 7 || verified[0].Name != "iso" {
		t.Fatalf("Verified events = %+v, want one for id 7 named iso", verified)
	}
}

func TestCycleGateSkipsEverything(t *testing.T) {
	gw := &fakeGateway{}
	l, st, _ := testLoop(gw, nil, false)
	l.Gate = func() bool { return true }

	updated := false
	l.OnUpdate = func() { updated = true }
	l.Cycle(context.Background())

	if gw.pings != 0 {
		t.Fatalf("pings = %d, want 0 while gated", gw.pings)
	}
	if !updated {
		t.Fatal("OnUpdate not called on gated cycle")
	}
	if st.Snapshot().Connected {
		t.Fatal("Connected flipped during gated cycle")
	}
}

func TestCycleFetchFailureKeepsPreviousData(t *testing.T) {
	gw := &fakeGateway{torrents: []transmission.Snapshot{{ID: 1}}}
	l, st, events := testLoop(gw, nil, false)
	l.Cycle(context.Background())

	gw.listErr = errors.New("boom")
	l.Cycle(context.Background())
	l.Cycle(context.Background())

	snap := st.Snapshot()
	if len(snap.Torrents) != 1 {
		t.Fatalf("Torrents = %#v, want previous poll preserved", snap.Torrents)
	}
	if snap.ConsecutiveFailures != 2 {
		t.Fatalf("ConsecutiveFailures = %d, want 2", snap.ConsecutiveFailures)
	}

	errorEvents := 0
	for _, e := range *events {
		if e.Kind == reconcile.EventRefreshError {
			errorEvents++
		}
	}
	if errorEvents != 1 {
		t.Fatalf("RefreshError events = %d, want 1 per streak", errorEvents)
	}
}

func TestCycleRestartsDaemonOnDeadConnection(t *testing.T) {
	gw := &fakeGateway{pingErr: errors.New("refused")}
	sup := &fakeSupervisor{}
	sup.onEnsure = func() { gw.pingErr = nil }
	l, st, events := testLoop(gw, sup, true)

	l.Cycle(context.Background())

	if sup.ensured != 1 {
		t.Fatalf("Ensure calls = %d, want 1", sup.ensured)
	}
	if !st.Snapshot().Connected {
		t.Fatal("Connected = false after successful restart")
	}
	restarted := false
	for _, e := range *events {
		if e.Kind == reconcile.EventRestarted {
			restarted = true
		}
	}
	if !restarted {
		t.Fatalf("events = %v, want Restarted", *events)
	}
}

func TestCycleNoRestartWhenDisabled(t *testing.T) {
	gw := &fakeGateway{pingErr: errors.New("refused")}
	sup := &fakeSupervisor{}
	l, st, events := testLoop(gw, sup, false)

	l.Cycle(context.Background())
	l.Cycle(context.Background())

	if sup.ensured != 0 {
		t.Fatalf("Ensure calls = %d, want 0 when restart disabled", sup.ensured)
	}
	if st.Snapshot().Connected {
		t.Fatal("Connected = true, want false")
	}
	disconnects := 0
	for _, e := range *events {
		if e.Kind == reconcile.EventDisconnected {
			disconnects++
		}
	}
	if disconnects != 1 {
		t.Fatalf("Disconnected events = %d, want 1 per transition", disconnects)
	}
}

func TestRefreshNowCoalesces(t *testing.T) {
	l, _, _ := testLoop(&fakeGateway{}, nil, false)
	l.RefreshNow()
	l.RefreshNow()
	l.RefreshNow()

	if len(l.kick) != 1 {
		t.Fatalf("pending kicks = %d, want 1", len(l.kick))
	}
}

func TestSetInterval(t *testing.T) {
	l, _, _ := testLoop(&fakeGateway{}, nil, false)
	l.SetInterval(5 * time.Second)
	if got := l.Interval(); got != 5*time.Second {
		t.Fatalf("Interval() = %v, want 5s", got)
	}
}
