package ui

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/torshproject/torsh/internal/config"
	"github.com/torshproject/torsh/internal/reconcile"
	"github.com/torshproject/torsh/internal/state"
	"github.com/torshproject/torsh/internal/transmission"
)

// Refresher is the refresh loop surface the UI drives: manual refresh
// and runtime cadence changes.
type Refresher interface {
	RefreshNow()
	SetInterval(time.Duration)
	Interval() time.Duration
}

// Options configure the UI runtime.
type Options struct {
	Gateway       *transmission.Gateway
	Store         *state.Store
	Config        *config.Config
	Reconciler    *reconcile.Reconciler
	Loop          Refresher
	DaemonLogPath string
	Version       string
	Log           zerolog.Logger
}

// noticeTTL is how long a transient notification stays visible.
const noticeTTL = 4 * time.Second

// rpcTimeout bounds UI-initiated RPC calls.
const rpcTimeout = 15 * time.Second

// UI owns the tview widget tree and user input.
type UI struct {
	app  *tview.Application
	opts Options
	log  zerolog.Logger

	root   *tview.Pages
	header *tview.TextView
	table  *tview.Table
	detail *tview.TextView
	footer *tview.TextView
	notice *tview.TextView

	logPage *tview.TextView

	cache    *reconcile.RowCache
	rowIDs   []int64 // table row order, index 0 is the first data row
	selected int64   // 0 means nothing selected
	detailID int64   // torrent currently expanded in the detail pane

	filters  Filters
	sortCol  int
	sortDesc bool

	modalDepth atomic.Int32
	logOpen    bool

	noticeMu    sync.Mutex
	noticeTimer *time.Timer
}

// New builds the widget tree. Run starts the event loop.
func New(opts Options) *UI {
	u := &UI{
		app:      tview.NewApplication(),
		opts:     opts,
		log:      opts.Log.With().Str("component", "ui").Logger(),
		cache:    reconcile.NewRowCache(),
		filters:  Filters{Text: opts.Config.UI.FilterText, Status: opts.Config.UI.StatusFilter, Progress: opts.Config.UI.ProgressFilter},
		sortCol:  opts.Config.UI.SortColumn,
		sortDesc: opts.Config.UI.SortDesc,
	}
	u.buildLayout()
	u.bindKeys()
	return u
}

// Run blocks until the user quits or the context is cancelled.
func (u *UI) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		u.app.QueueUpdateDraw(func() { u.app.Stop() })
	}()

	// Paint whatever the initial cycle already produced.
	u.render(u.opts.Store.Snapshot())
	return u.app.SetRoot(u.root, true).EnableMouse(false).Run()
}

// ModalOpen reports whether a modal currently suppresses refresh cycles.
func (u *UI) ModalOpen() bool {
	return u.modalDepth.Load() > 0
}

// QueueRedraw schedules a repaint from the latest store snapshot. Safe
// to call from any goroutine.
func (u *UI) QueueRedraw() {
	go u.app.QueueUpdateDraw(func() {
		u.render(u.opts.Store.Snapshot())
	})
}

// Notify surfaces reconcile events on the transient notice line. Safe to
// call from any goroutine.
func (u *UI) Notify(events []reconcile.Event) {
	if len(events) == 0 {
		return
	}
	text := formatEvents(events)
	go u.app.QueueUpdateDraw(func() {
		u.flash(text)
	})
}

// flash shows text on the notice line and arms the clear timer.
func (u *UI) flash(text string) {
	u.notice.SetText(text)

	u.noticeMu.Lock()
	defer u.noticeMu.Unlock()
	if u.noticeTimer != nil {
		u.noticeTimer.Stop()
	}
	u.noticeTimer = time.AfterFunc(noticeTTL, func() {
		u.app.QueueUpdateDraw(func() { u.notice.SetText("") })
	})
}

// rpcCtx builds the context for a user-initiated RPC call.
func rpcCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rpcTimeout)
}

// persistUI writes the current sort, filter, and interval preferences
// back to the config file.
func (u *UI) persistUI() {
	cfg := u.opts.Config
	cfg.UI.SortColumn = u.sortCol
	cfg.UI.SortDesc = u.sortDesc
	cfg.UI.FilterText = u.filters.Text
	cfg.UI.StatusFilter = u.filters.Status
	cfg.UI.ProgressFilter = u.filters.Progress
	cfg.UI.RefreshInterval = u.opts.Loop.Interval().Seconds()
	if err := config.Save(*cfg); err != nil {
		u.log.Warn().Err(err).Msg("persist ui preferences")
	}
}
