package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/torshproject/torsh/internal/transmission"
)

// togglePause pauses a running torrent or starts an idle one. Explicit
// pause pins the torrent against auto-resume until the user starts it
// again.
func (u *UI) togglePause() {
	t, ok := u.selectedTorrent()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()

		switch t.Status {
		case transmission.StatusDownloading, transmission.StatusSeeding, transmission.StatusChecking:
			if err := u.opts.Gateway.Stop(ctx, []int64{t.ID}); err != nil {
				u.flashAsync(errorText("pause", err))
				return
			}
			u.opts.Reconciler.MarkUserPaused(t.ID)
			u.flashAsync(fmt.Sprintf("[yellow]paused: %s[-]", tview.Escape(truncate(t.Name, 30))))
		default:
			if err := u.opts.Gateway.Start(ctx, []int64{t.ID}); err != nil {
				u.flashAsync(errorText("start", err))
				return
			}
			u.opts.Reconciler.MarkUserResumed(t.ID)
			u.flashAsync(fmt.Sprintf("[green]started: %s[-]", tview.Escape(truncate(t.Name, 30))))
		}
		u.opts.Loop.RefreshNow()
	}()
}

func (u *UI) verifySelected() {
	t, ok := u.selectedTorrent()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		if err := u.opts.Gateway.Verify(ctx, []int64{t.ID}); err != nil {
			u.flashAsync(errorText("verify", err))
			return
		}
		u.flashAsync(fmt.Sprintf("[gray]verifying: %s[-]", tview.Escape(truncate(t.Name, 30))))
		u.opts.Loop.RefreshNow()
	}()
}

func (u *UI) removeTorrent(t transmission.Snapshot, deleteData bool) {
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		if err := u.opts.Gateway.Remove(ctx, []int64{t.ID}, deleteData); err != nil {
			u.flashAsync(errorText("remove", err))
			return
		}
		u.opts.Reconciler.Forget(t.ID)
		label := "removed (kept data)"
		if deleteData {
			label = "removed with data"
		}
		u.flashAsync(fmt.Sprintf("[yellow]%s: %s[-]", label, tview.Escape(truncate(t.Name, 30))))
		u.opts.Loop.RefreshNow()
	}()
}

func (u *UI) addTorrent(link, dir string) {
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		_, name, err := u.opts.Gateway.Add(ctx, link, dir)
		if err != nil {
			u.flashAsync(errorText("add", err))
			return
		}
		if name == "" {
			name = truncate(link, 30)
		}
		u.flashAsync(fmt.Sprintf("[green]added: %s[-]", tview.Escape(truncate(name, 30))))
		u.opts.Loop.RefreshNow()
	}()
}

func (u *UI) moveTorrent(t transmission.Snapshot, dir string) {
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		if err := u.opts.Gateway.Move(ctx, []int64{t.ID}, dir); err != nil {
			u.flashAsync(errorText("move", err))
			return
		}
		u.flashAsync(fmt.Sprintf("[green]moved to %s[-]", tview.Escape(truncate(dir, 40))))
		u.opts.Loop.RefreshNow()
	}()
}

func (u *UI) setGlobalLimits(limits transmission.SpeedLimits) {
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		if err := u.opts.Gateway.SetSpeedLimits(ctx, limits); err != nil {
			u.flashAsync(errorText("speed limits", err))
			return
		}
		u.flashAsync(fmt.Sprintf("[yellow]limits: ↓%d ↑%d KiB/s[-]", limits.Down, limits.Up))
		u.opts.Loop.RefreshNow()
	}()
}

func (u *UI) setTorrentLimits(id int64, limits transmission.SpeedLimits) {
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		if err := u.opts.Gateway.SetTorrentSpeed(ctx, id, limits); err != nil {
			u.flashAsync(errorText("torrent speed", err))
			return
		}
		u.flashAsync("[yellow]torrent speed limits set[-]")
		u.opts.Loop.RefreshNow()
	}()
}

func (u *UI) setPriorities(id int64, high, normal, low []int) {
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		if err := u.opts.Gateway.SetPriority(ctx, id, high, normal, low); err != nil {
			u.flashAsync(errorText("priorities", err))
			return
		}
		u.flashAsync("[green]priorities updated[-]")
		u.opts.Loop.RefreshNow()
	}()
}

// flashAsync is flash for goroutines off the UI thread.
func (u *UI) flashAsync(text string) {
	u.app.QueueUpdateDraw(func() { u.flash(text) })
}

func errorText(op string, err error) string {
	return fmt.Sprintf("[red]%s failed: %s[-]", op, tview.Escape(truncate(err.Error(), 60)))
}
