package app

import (
	"context"
	"path/filepath"

	"github.com/torshproject/torsh/internal/config"
	"github.com/torshproject/torsh/internal/daemon"
	"github.com/torshproject/torsh/internal/logging"
	"github.com/torshproject/torsh/internal/reconcile"
	"github.com/torshproject/torsh/internal/state"
	"github.com/torshproject/torsh/internal/transmission"
	"github.com/torshproject/torsh/internal/ui"
)

// Options configure the torsh application.
type Options struct {
	ConfigDir string // empty uses the default torsh config dir
	LogPath   string // empty uses <config-dir>/torsh.log
	LogLevel  string
	Version   string

	// Overrides mutates the loaded config before anything starts, used
	// by the CLI to apply flag and environment values.
	Overrides func(*config.Config)
}

// Run boots the torsh TUI until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	if opts.ConfigDir == "" {
		opts.ConfigDir = config.DefaultDir()
	}
	cfg := config.Load(opts.ConfigDir)
	if opts.Overrides != nil {
		opts.Overrides(&cfg)
		cfg = cfg.Normalize()
	}

	logPath := opts.LogPath
	if logPath == "" {
		logPath = filepath.Join(cfg.Paths.ConfigDir, "torsh.log")
	}
	log, closeLog := logging.New(logPath, opts.LogLevel)
	defer closeLog()
	log.Info().Str("version", opts.Version).Msg("torsh starting")

	gw := transmission.NewGateway(cfg.RPC, log)

	sup := daemon.NewSupervisor(cfg, daemon.NewSystem(), log)
	sup.OnPortChange = func(port int) {
		cfg.RPC.Port = port
		gw.SetPort(port)
		if err := config.Save(cfg); err != nil {
			log.Warn().Err(err).Msg("persist moved rpc port")
		}
	}
	if cfg.Daemon.Autostart {
		if err := sup.Ensure(ctx); err != nil {
			// The UI still starts; the header shows disconnected.
			log.Warn().Err(err).Msg("daemon not ready")
		}
	}

	store := &state.Store{}
	rec := reconcile.New(log)
	loop := NewLoop(gw, sup, rec, store, cfg.UI.RefreshEvery(), cfg.Daemon.RestartOnFail && cfg.Daemon.Autostart, cfg.Paths.DownloadDir, log)

	tui := ui.New(ui.Options{
		Gateway:       gw,
		Store:         store,
		Config:        &cfg,
		Reconciler:    rec,
		Loop:          loop,
		DaemonLogPath: cfg.Daemon.LogPath,
		Version:       opts.Version,
		Log:           log,
	})
	loop.Gate = tui.ModalOpen
	loop.Notify = tui.Notify
	loop.OnUpdate = tui.QueueRedraw

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go loop.Run(loopCtx)

	err := tui.Run(ctx)
	log.Info().Msg("torsh exiting")
	return err
}
