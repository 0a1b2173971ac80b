package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/torshproject/torsh/internal/reconcile"
	"github.com/torshproject/torsh/internal/state"
	"github.com/torshproject/torsh/internal/transmission"
)

// restartGrace is how long a freshly restarted daemon gets before the
// connection is re-checked.
const restartGrace = 1500 * time.Millisecond

// gateway is the slice of the RPC surface the refresh loop consumes.
type gateway interface {
	Ping(ctx context.Context) error
	ListTorrents(ctx context.Context) ([]transmission.Snapshot, error)
	Stats(ctx context.Context) (transmission.SessionStats, error)
	SpeedLimits(ctx context.Context) (transmission.SpeedLimits, error)
	Start(ctx context.Context, ids []int64) error
	Verify(ctx context.Context, ids []int64) error
}

// restarter is the supervisor capability the loop needs on a dead
// connection.
type restarter interface {
	Ensure(ctx context.Context) error
}

// Loop runs the refresh cycle at the configured cadence. Cycles never
// overlap: the timer is re-armed only after a cycle returns.
type Loop struct {
	gw  gateway
	sup restarter
	rec *reconcile.Reconciler
	st  *state.Store
	log zerolog.Logger

	restartOnFail bool
	downloadDir   string
	sleep         func(context.Context, time.Duration)
	disk          func(string) (free, total uint64, err error)

	// Gate reports whether the cycle should be skipped, typically while
	// a modal is open. Nil never skips.
	Gate func() bool
	// Notify receives the cycle's deduplicated events. Nil discards.
	Notify func([]reconcile.Event)
	// OnUpdate runs after every completed or skipped cycle so the UI can
	// redraw. Nil is allowed.
	OnUpdate func()

	mu       sync.Mutex
	interval time.Duration
	kick     chan struct{}
}

// NewLoop builds a refresh loop; restartOnFail enables the supervisor
// path when the daemon stops answering.
func NewLoop(gw gateway, sup restarter, rec *reconcile.Reconciler, st *state.Store, interval time.Duration, restartOnFail bool, downloadDir string, log zerolog.Logger) *Loop {
	return &Loop{
		gw:            gw,
		sup:           sup,
		rec:           rec,
		st:            st,
		log:           log.With().Str("component", "loop").Logger(),
		restartOnFail: restartOnFail,
		downloadDir:   downloadDir,
		sleep:         sleepCtx,
		disk:          diskUsage,
		interval:      interval,
		kick:          make(chan struct{}, 1),
	}
}

// SetInterval changes the cadence, taking effect when the next timer is
// armed.
func (l *Loop) SetInterval(d time.Duration) {
	l.mu.Lock()
	l.interval = d
	l.mu.Unlock()
}

// Interval reports the current cadence.
func (l *Loop) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

// RefreshNow schedules an immediate cycle. Coalesces when one is already
// pending.
func (l *Loop) RefreshNow() {
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// Run blocks until the context is cancelled, executing one cycle per
// tick. The first cycle runs immediately.
func (l *Loop) Run(ctx context.Context) {
	for {
		l.Cycle(ctx)

		timer := time.NewTimer(l.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-l.kick:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Cycle performs one refresh pass: connection check, parallel fetch,
// reconciliation, store update. Errors are absorbed into events and the
// store; nothing stops the loop.
func (l *Loop) Cycle(ctx context.Context) {
	defer func() {
		if l.OnUpdate != nil {
			l.OnUpdate()
		}
	}()

	if l.Gate != nil && l.Gate() {
		return
	}

	up, restarted := l.checkConnection(ctx)
	events := l.rec.ObserveConnection(up, restarted)
	l.st.SetConnected(up)
	if !up {
		l.notify(events)
		return
	}

	torrents, stats, limits, err := l.fetch(ctx)
	if err != nil {
		l.st.Update(nil, nil, transmission.SpeedLimits{}, err)
		l.notify(append(events, l.rec.ObserveFailure(err)...))
		return
	}

	actions, cycleEvents := l.rec.Observe(torrents)
	cycleEvents = append(cycleEvents, l.apply(ctx, actions, torrents)...)
	l.st.Update(torrents, stats, limits, nil)
	if free, total, err := l.disk(l.downloadDir); err == nil {
		l.st.SetDisk(free, total)
	}
	l.notify(append(events, cycleEvents...))
}

func (l *Loop) checkConnection(ctx context.Context) (up, restarted bool) {
	if l.gw.Ping(ctx) == nil {
		return true, false
	}
	if !l.restartOnFail || l.sup == nil {
		return false, false
	}
	if err := l.sup.Ensure(ctx); err != nil {
		l.log.Debug().Err(err).Msg("daemon restart failed")
		return false, false
	}
	l.sleep(ctx, restartGrace)
	if l.gw.Ping(ctx) != nil {
		return false, false
	}
	return true, true
}

// fetch pulls the torrent list and session figures concurrently. A
// limits failure is tolerated; the badge just goes stale.
func (l *Loop) fetch(ctx context.Context) ([]transmission.Snapshot, *transmission.SessionStats, transmission.SpeedLimits, error) {
	var (
		torrents []transmission.Snapshot
		stats    transmission.SessionStats
		limits   transmission.SpeedLimits
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		torrents, err = l.gw.ListTorrents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = l.gw.Stats(gctx)
		if err != nil {
			return err
		}
		if limits, err = l.gw.SpeedLimits(gctx); err != nil {
			l.log.Debug().Err(err).Msg("speed limits fetch failed")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, transmission.SpeedLimits{}, err
	}
	return torrents, &stats, limits, nil
}

// apply issues the cycle's follow-up RPCs. A verify is announced only
// once the daemon accepted it; a failed call stays a debug log line.
func (l *Loop) apply(ctx context.Context, actions reconcile.Actions, torrents []transmission.Snapshot) []reconcile.Event {
	if len(actions.Start) > 0 {
		if err := l.gw.Start(ctx, actions.Start); err != nil {
			l.log.Debug().Err(err).Ints64("ids", actions.Start).Msg("auto start failed")
		}
	}
	if len(actions.Verify) == 0 {
		return nil
	}
	if err := l.gw.Verify(ctx, actions.Verify); err != nil {
		l.log.Debug().Err(err).Ints64("ids", actions.Verify).Msg("auto verify failed")
		return nil
	}
	names := make(map[int64]string, len(torrents))
	for _, t := range torrents {
		names[t.ID] = t.Name
	}
	events := make([]reconcile.Event, 0, len(actions.Verify))
	for _, id := range actions.Verify {
		events = append(events, reconcile.Event{Kind: reconcile.EventVerified, TorrentID: id, Name: names[id]})
	}
	return events
}

func (l *Loop) notify(events []reconcile.Event) {
	if l.Notify == nil || len(events) == 0 {
		return
	}
	l.Notify(events)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
