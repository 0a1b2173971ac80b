package ui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/torshproject/torsh/internal/transmission"
)

const modalPage = "modal"

// showModal overlays p centered on the root pages. While any modal is
// open the refresh loop skips its cycles.
func (u *UI) showModal(p tview.Primitive, width, height int) {
	wrapper := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)

	u.modalDepth.Add(1)
	u.root.AddPage(modalPage, wrapper, true, true)
	u.app.SetFocus(p)
}

func (u *UI) closeModal() {
	u.root.RemovePage(modalPage)
	u.modalDepth.Add(-1)
	u.app.SetFocus(u.table)
	u.opts.Loop.RefreshNow()
}

func modalForm(title string) *tview.Form {
	form := tview.NewForm()
	form.SetBorder(true).SetTitle(" [::b]" + title + "[::-] ")
	form.SetBorderColor(tcell.ColorSlateGray)
	form.SetBackgroundColor(tcell.ColorBlack)
	form.SetButtonsAlign(tview.AlignRight)
	return form
}

func (u *UI) showAddModal() {
	form := modalForm("Add Torrent")
	form.AddInputField("Magnet link or file", "", 50, nil, nil)
	form.AddInputField("Download dir", u.opts.Config.Paths.DownloadDir, 50, nil, nil)
	form.AddButton("Add", func() {
		link := strings.TrimSpace(form.GetFormItem(0).(*tview.InputField).GetText())
		dir := strings.TrimSpace(form.GetFormItem(1).(*tview.InputField).GetText())
		u.closeModal()
		if link == "" {
			return
		}
		if dir == "" {
			dir = u.opts.Config.Paths.DownloadDir
		}
		u.addTorrent(link, dir)
	})
	form.AddButton("Cancel", u.closeModal)
	form.SetCancelFunc(u.closeModal)
	u.showModal(form, 62, 9)
}

// confirmDelete asks before removing the selected torrent, spelling out
// whether local data goes with it.
func (u *UI) confirmDelete(deleteData bool) {
	t, ok := u.selectedTorrent()
	if !ok {
		return
	}
	detail := "Downloaded data will be kept."
	if deleteData {
		detail = "Downloaded data will also be removed."
	}
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Delete '%s'?\n%s", truncate(t.Name, 40), detail)).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			u.closeModal()
			if label == "Delete" {
				u.removeTorrent(t, deleteData)
			}
		})
	// tview.Modal centers itself, so it skips the showModal wrapper.
	u.modalDepth.Add(1)
	u.root.AddPage(modalPage, modal, true, true)
	u.app.SetFocus(modal)
}

func (u *UI) showMoveModal() {
	t, ok := u.selectedTorrent()
	if !ok {
		return
	}
	form := modalForm("Move Torrent")
	form.AddInputField("New location", t.DownloadDir, 50, nil, nil)
	form.AddButton("Move", func() {
		dir := strings.TrimSpace(form.GetFormItem(0).(*tview.InputField).GetText())
		u.closeModal()
		if dir == "" {
			return
		}
		if !filepath.IsAbs(dir) {
			u.flash("[yellow]path must be absolute[-]")
			return
		}
		u.moveTorrent(t, dir)
	})
	form.AddButton("Cancel", u.closeModal)
	form.SetCancelFunc(u.closeModal)
	u.showModal(form, 62, 7)
}

func (u *UI) showGlobalSpeedModal() {
	limits := u.opts.Store.Snapshot().Limits
	u.showSpeedModal("Global Speed Limits", limits, u.setGlobalLimits)
}

func (u *UI) showTorrentSpeedModal() {
	t, ok := u.selectedTorrent()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		limits, err := u.opts.Gateway.TorrentSpeed(ctx, t.ID)
		if err != nil {
			u.flashAsync(errorText("torrent speed", err))
			return
		}
		u.app.QueueUpdateDraw(func() {
			u.showSpeedModal("Torrent Speed Limits", limits, func(l transmission.SpeedLimits) {
				u.setTorrentLimits(t.ID, l)
			})
		})
	}()
}

// showSpeedModal edits a down/up limit pair in KiB/s; zero disables a
// direction.
func (u *UI) showSpeedModal(title string, current transmission.SpeedLimits, apply func(transmission.SpeedLimits)) {
	form := modalForm(title)
	numeric := func(text string, _ rune) bool {
		_, err := strconv.Atoi(text)
		return err == nil || text == ""
	}
	form.AddInputField("Down KiB/s (0 = unlimited)", strconv.FormatInt(current.Down, 10), 12, numeric, nil)
	form.AddInputField("Up KiB/s (0 = unlimited)", strconv.FormatInt(current.Up, 10), 12, numeric, nil)
	form.AddButton("Apply", func() {
		down, _ := strconv.ParseInt(form.GetFormItem(0).(*tview.InputField).GetText(), 10, 64)
		up, _ := strconv.ParseInt(form.GetFormItem(1).(*tview.InputField).GetText(), 10, 64)
		u.closeModal()
		apply(transmission.SpeedLimits{Down: down, Up: up})
	})
	form.AddButton("Cancel", u.closeModal)
	form.SetCancelFunc(u.closeModal)
	u.showModal(form, 44, 9)
}

// priorityOptions order matches the rotation of the dropdowns.
var priorityOptions = []string{"normal", "high", "low", "skip"}

func (u *UI) showPriorityModal() {
	t, ok := u.selectedTorrent()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := rpcCtx()
		defer cancel()
		files, err := u.opts.Gateway.Files(ctx, t.ID)
		if err != nil {
			u.flashAsync(errorText("priorities", err))
			return
		}
		if len(files) == 0 {
			u.flashAsync("[yellow]no files yet, metadata still loading[-]")
			return
		}
		u.app.QueueUpdateDraw(func() { u.buildPriorityModal(t.ID, files) })
	}()
}

func (u *UI) buildPriorityModal(id int64, files []transmission.FileInfo) {
	form := modalForm("File Priorities")
	selections := make([]int, len(files))
	for i, f := range files {
		selections[i] = priorityIndex(f)
		idx := i
		form.AddDropDown(truncate(f.Name, 42), priorityOptions, selections[i], func(_ string, opt int) {
			selections[idx] = opt
		})
	}
	form.AddButton("Apply", func() {
		u.closeModal()
		var high, normal, low []int
		for i, sel := range selections {
			switch priorityOptions[sel] {
			case "high":
				high = append(high, files[i].Index)
			case "low", "skip":
				low = append(low, files[i].Index)
			default:
				normal = append(normal, files[i].Index)
			}
		}
		u.setPriorities(id, high, normal, low)
	})
	form.AddButton("Cancel", u.closeModal)
	form.SetCancelFunc(u.closeModal)

	height := len(files)*2 + 5
	if height > 24 {
		height = 24
	}
	u.showModal(form, 56, height)
}

func priorityIndex(f transmission.FileInfo) int {
	switch {
	case !f.Wanted:
		return 3
	case f.Priority > 0:
		return 1
	case f.Priority < 0:
		return 2
	default:
		return 0
	}
}

func (u *UI) showFilterModal() {
	form := modalForm("Name Filter")
	form.AddInputField("Contains", u.filters.Text, 40, nil, nil)
	form.AddButton("Apply", func() {
		u.filters.Text = strings.TrimSpace(form.GetFormItem(0).(*tview.InputField).GetText())
		u.closeModal()
		u.afterFilterChange("filter: " + orAny(u.filters.Text))
	})
	form.AddButton("Clear", func() {
		u.filters.Text = ""
		u.closeModal()
		u.afterFilterChange("filter cleared")
	})
	form.AddButton("Cancel", u.closeModal)
	form.SetCancelFunc(u.closeModal)
	u.showModal(form, 52, 7)
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func (u *UI) showHelpModal() {
	text := `[::b]Keys[::-]

[yellow]a[-]        add torrent          [yellow]space[-]  pause / resume
[yellow]d[-]        delete with data     [yellow]x[-]      delete, keep data
[yellow]v[-]        verify               [yellow]g[-]      move data
[yellow]s[-]        global speed limits  [yellow]t[-]      torrent speed limits
[yellow]p[-]        file priorities      [yellow]/[-]      name filter
[yellow]c[-]        cycle status filter  [yellow]o[-]      cycle progress filter
[yellow]1-8[-]      sort column (again = reverse)
[yellow]][-]       faster refresh        [yellow][[-]      slower refresh
[yellow]j k G[-]    move cursor          [yellow]r[-]      refresh now
[yellow]l[-]        daemon log           [yellow]q[-]      quit

press Esc to close`
	view := tview.NewTextView().SetDynamicColors(true)
	view.SetBorder(true).SetTitle(" [::b]Help[::-] ")
	view.SetBorderColor(tcell.ColorSlateGray)
	view.SetBackgroundColor(tcell.ColorBlack)
	view.SetText(text)
	view.SetDoneFunc(func(tcell.Key) { u.closeModal() })
	u.showModal(view, 66, 17)
}
