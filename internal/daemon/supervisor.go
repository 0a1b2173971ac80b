package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/torshproject/torsh/internal/config"
)

// State is the supervisor's lifecycle position. It only ever moves
// forward within one Ensure run; a later run starts over from Unknown.
type State string

const (
	StateUnknown       State = "unknown"
	StateBinaryMissing State = "binary-missing"
	StateInstalling    State = "installing"
	StateStarting      State = "starting"
	StateWaitingForRPC State = "waiting-for-rpc"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// SupervisorError reports a failed lifecycle stage. It degrades the UI
// to disconnected; it never terminates the program.
type SupervisorError struct {
	Stage State
	Err   error
}

func (e *SupervisorError) Error() string {
	return fmt.Sprintf("daemon supervisor (%s): %v", e.Stage, e.Err)
}

func (e *SupervisorError) Unwrap() error { return e.Err }

// Supervisor drives transmission-daemon from absent to answering RPC.
type Supervisor struct {
	cfg config.Config
	sys System
	log zerolog.Logger

	// OnPortChange is invoked when the RPC port probe settles on a port
	// other than the configured one, so the change can be persisted.
	OnPortChange func(port int)

	settleDelay   time.Duration
	readyTimeout  time.Duration
	probeInterval time.Duration
	sleep         func(context.Context, time.Duration)

	mu    sync.Mutex
	state State
}

// NewSupervisor builds a supervisor over the given system surface.
func NewSupervisor(cfg config.Config, sys System, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		cfg:           cfg,
		sys:           sys,
		log:           log.With().Str("component", "supervisor").Logger(),
		settleDelay:   2500 * time.Millisecond,
		readyTimeout:  5 * time.Second,
		probeInterval: 250 * time.Millisecond,
		sleep:         sleepCtx,
		state:         StateUnknown,
	}
}

// State reports the most recent lifecycle position.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.log.Debug().Str("state", string(st)).Msg("supervisor state")
}

func (s *Supervisor) fail(st State, err error) error {
	s.setState(StateFailed)
	s.log.Warn().Err(err).Str("stage", string(st)).Msg("daemon supervision failed")
	return &SupervisorError{Stage: st, Err: err}
}

// Ensure brings the daemon to Ready: already-running short-circuits,
// otherwise install if missing and permitted, resolve ports, launch, and
// wait for the RPC socket to accept. Errors degrade, they never panic or
// exit.
func (s *Supervisor) Ensure(ctx context.Context) error {
	s.setState(StateUnknown)
	procName := filepath.Base(s.cfg.Daemon.Binary)

	if s.sys.ProcessRunning(procName) {
		s.log.Debug().Str("process", procName).Msg("daemon already running")
		s.setState(StateReady)
		return nil
	}

	if !s.sys.LookPath(s.cfg.Daemon.Binary) {
		s.setState(StateBinaryMissing)
		if !s.cfg.Daemon.InstallMissing {
			return s.fail(StateBinaryMissing, fmt.Errorf("%s not found and auto-install is disabled", s.cfg.Daemon.Binary))
		}
		if err := s.install(ctx); err != nil {
			return err
		}
	}

	s.setState(StateStarting)
	rpcPort := pickPort(s.sys, s.cfg.RPC.Port)
	peerPort := pickPort(s.sys, defaultPeerPort)
	if rpcPort != s.cfg.RPC.Port {
		s.log.Info().Int("from", s.cfg.RPC.Port).Int("to", rpcPort).Msg("rpc port busy, moved")
		s.cfg.RPC.Port = rpcPort
		if s.OnPortChange != nil {
			s.OnPortChange(rpcPort)
		}
	}
	if err := writeSettings(s.cfg.Paths.SettingsPath(), rpcPort, peerPort); err != nil {
		return s.fail(StateStarting, err)
	}

	if err := s.sys.Spawn(s.launchArgs(), s.cfg.Daemon.LogPath); err != nil {
		return s.fail(StateStarting, err)
	}
	s.log.Info().Str("binary", s.cfg.Daemon.Binary).Int("rpc_port", rpcPort).Msg("daemon started")
	s.sleep(ctx, s.settleDelay)

	s.setState(StateWaitingForRPC)
	if !s.awaitRPC(ctx, rpcPort) {
		return s.fail(StateWaitingForRPC, fmt.Errorf("rpc port %d not accepting after %s", rpcPort, s.readyTimeout))
	}
	s.setState(StateReady)
	return nil
}

func (s *Supervisor) install(ctx context.Context) error {
	manager := detectManager(s.sys)
	if manager == "" {
		return s.fail(StateBinaryMissing, fmt.Errorf("no supported package manager on PATH"))
	}
	s.setState(StateInstalling)
	s.log.Info().Str("manager", manager).Msg("installing transmission")
	if err := runInstall(ctx, s.sys, manager, s.cfg.Daemon.LogPath); err != nil {
		return s.fail(StateInstalling, err)
	}
	if !s.sys.LookPath(s.cfg.Daemon.Binary) {
		return s.fail(StateInstalling, fmt.Errorf("%s still missing after install via %s", s.cfg.Daemon.Binary, manager))
	}
	return nil
}

func (s *Supervisor) launchArgs() []string {
	// Foreground keeps the daemon attached to the redirected log file;
	// detachment comes from the new session, not from daemonizing.
	args := []string{
		s.cfg.Daemon.Binary,
		"--foreground",
		"--config-dir", s.cfg.Paths.ConfigDir,
		"--download-dir", s.cfg.Paths.DownloadDir,
		"--log-info",
	}
	return append(args, s.cfg.Daemon.ExtraArgs...)
}

func (s *Supervisor) awaitRPC(ctx context.Context, port int) bool {
	deadline := time.Now().Add(s.readyTimeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if s.sys.ProbeRPC(s.cfg.RPC.Host, port, s.probeInterval) {
			return true
		}
		s.sleep(ctx, s.probeInterval)
	}
	return false
}

// Stop terminates the daemon by process name, then waits briefly for it
// to exit. Best effort.
func (s *Supervisor) Stop(ctx context.Context) {
	procName := filepath.Base(s.cfg.Daemon.Binary)
	if err := s.sys.Terminate(procName); err != nil {
		s.log.Debug().Err(err).Msg("terminate daemon")
		return
	}
	s.sleep(ctx, 500*time.Millisecond)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
