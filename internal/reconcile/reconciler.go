package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/torshproject/torsh/internal/transmission"
)

// EventKind classifies a reconciler notification.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
	EventRestarted    EventKind = "restarted"
	EventCompleted    EventKind = "completed"
	EventVerified     EventKind = "verified"
	EventAutoRetry    EventKind = "auto-retry"
	EventAutoResume   EventKind = "auto-resume"
	EventRefreshError EventKind = "refresh-error"
)

// Event is one user-visible notification produced by a cycle.
type Event struct {
	Kind      EventKind
	TorrentID int64
	Name      string
	Attempt   int
	Count     int
	Err       error
}

// Actions lists the follow-up RPC calls a cycle decided on.
type Actions struct {
	Start  []int64
	Verify []int64
}

// maxRetryAttempts bounds automatic restarts of an errored torrent.
const maxRetryAttempts = 3

// Reconciler tracks cross-cycle torrent state. Not safe for concurrent
// use; the refresh loop owns it.
type Reconciler struct {
	log zerolog.Logger

	percent    map[int64]float64
	completed  map[int64]bool
	verified   map[int64]bool
	userPaused map[int64]bool
	retries    map[int64]int

	connected  bool
	failStreak int
}

// New builds a Reconciler. The connection starts presumed up so a healthy
// first cycle stays silent.
func New(log zerolog.Logger) *Reconciler {
	return &Reconciler{
		log:        log.With().Str("component", "reconcile").Logger(),
		percent:    map[int64]float64{},
		completed:  map[int64]bool{},
		verified:   map[int64]bool{},
		userPaused: map[int64]bool{},
		retries:    map[int64]int{},
		connected:  true,
	}
}

// ObserveConnection records the ping outcome and emits exactly one event
// per transition. restarted marks a successful supervisor restart inside
// this cycle.
func (r *Reconciler) ObserveConnection(up, restarted bool) []Event {
	var events []Event
	if restarted && up {
		events = append(events, Event{Kind: EventRestarted})
	}
	if up != r.connected {
		if up {
			events = append(events, Event{Kind: EventConnected})
		} else {
			events = append(events, Event{Kind: EventDisconnected})
		}
	}
	r.connected = up
	return events
}

// Connected reports the last observed connection state.
func (r *Reconciler) Connected() bool { return r.connected }

// Observe processes one successful torrent poll. It returns the actions
// the loop should issue and the notifications to surface, and resets the
// refresh failure streak.
func (r *Reconciler) Observe(torrents []transmission.Snapshot) (Actions, []Event) {
	r.failStreak = 0

	var actions Actions
	var events []Event
	seen := make(map[int64]bool, len(torrents))

	var resumed int
	for _, t := range torrents {
		seen[t.ID] = true

		if t.Percent >= 100 && !r.completed[t.ID] {
			// Notify only for a transition watched across cycles; a
			// torrent already complete on the first poll is adopted
			// silently.
			if prev, ok := r.percent[t.ID]; ok && prev < 100 {
				events = append(events, Event{Kind: EventCompleted, TorrentID: t.ID, Name: t.Name})
			}
			r.completed[t.ID] = true
			if !r.verified[t.ID] {
				// Queued at most once per id; the loop notifies only
				// when the verify RPC actually succeeds.
				r.verified[t.ID] = true
				actions.Verify = append(actions.Verify, t.ID)
			}
		}
		r.percent[t.ID] = t.Percent

		switch {
		case t.Status == transmission.StatusError && t.Percent < 100:
			if r.retries[t.ID] < maxRetryAttempts {
				r.retries[t.ID]++
				actions.Start = append(actions.Start, t.ID)
				events = append(events, Event{Kind: EventAutoRetry, TorrentID: t.ID, Name: t.Name, Attempt: r.retries[t.ID]})
			}
		default:
			// Leaving error state re-arms the retry budget.
			delete(r.retries, t.ID)
			if t.Percent < 100 && isIdle(t.Status) && !r.userPaused[t.ID] {
				actions.Start = append(actions.Start, t.ID)
				resumed++
			}
		}
	}
	if resumed > 0 {
		events = append(events, Event{Kind: EventAutoResume, Count: resumed})
	}

	r.forgetVanished(seen)
	return actions, events
}

func isIdle(status transmission.Status) bool {
	return status == transmission.StatusStopped || status == transmission.StatusPaused
}

// ObserveFailure records a failed poll. Only the first failure of a
// streak produces an event; the streak resets on the next success.
func (r *Reconciler) ObserveFailure(err error) []Event {
	r.failStreak++
	r.log.Error().Err(err).Int("streak", r.failStreak).Msg("refresh failed")
	if r.failStreak > 1 {
		return nil
	}
	return []Event{{Kind: EventRefreshError, Err: err}}
}

// MarkUserPaused pins an id against auto-resume. Only explicit pause
// input calls this.
func (r *Reconciler) MarkUserPaused(id int64) { r.userPaused[id] = true }

// MarkUserResumed lifts the pin after an explicit resume.
func (r *Reconciler) MarkUserResumed(id int64) { delete(r.userPaused, id) }

// UserPaused reports whether the id is pinned.
func (r *Reconciler) UserPaused(id int64) bool { return r.userPaused[id] }

// Forget drops all state for a removed torrent.
func (r *Reconciler) Forget(id int64) {
	delete(r.percent, id)
	delete(r.completed, id)
	delete(r.verified, id)
	delete(r.userPaused, id)
	delete(r.retries, id)
}

func (r *Reconciler) forgetVanished(seen map[int64]bool) {
	for id := range r.percent {
		if !seen[id] {
			r.Forget(id)
		}
	}
}
