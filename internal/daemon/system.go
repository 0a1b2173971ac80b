package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

// System is the host capability surface the supervisor runs against.
// Production code uses execSystem; tests swap in a scripted fake so the
// state machine is exercised without touching processes or sockets.
type System interface {
	// LookPath reports whether the named binary is on PATH.
	LookPath(name string) bool
	// ProcessRunning reports whether a process with the exact name exists.
	ProcessRunning(name string) bool
	// RunInstall executes one package manager step, streaming output to
	// the daemon log. A non-zero exit is an error.
	RunInstall(ctx context.Context, logPath string, argv []string) error
	// Spawn launches argv detached from the calling process with stdout
	// and stderr appended to logPath.
	Spawn(argv []string, logPath string) error
	// Terminate signals all processes with the exact name. Best effort.
	Terminate(name string) error
	// PortFree reports whether a TCP port can currently be bound.
	PortFree(port int) bool
	// ProbeRPC attempts a short TCP dial of the RPC port.
	ProbeRPC(host string, port int, timeout time.Duration) bool
}

type execSystem struct{}

// NewSystem returns the os/exec-backed System implementation.
func NewSystem() System {
	return execSystem{}
}

func (execSystem) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func (execSystem) ProcessRunning(name string) bool {
	// pgrep -x matches the process name exactly, not substrings.
	err := exec.Command("pgrep", "-x", name).Run()
	return err == nil
}

func (execSystem) RunInstall(ctx context.Context, logPath string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty install command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if log, err := openLog(logPath); err == nil {
		defer log.Close()
		cmd.Stdout = log
		cmd.Stderr = log
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

func (execSystem) Spawn(argv []string, logPath string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	log, err := openLog(logPath)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer log.Close()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = log
	cmd.Stderr = log
	cmd.Stdin = nil
	// New session so the daemon survives torsh exiting.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	// Reap the child if it does exit; the daemon normally outlives us.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (execSystem) Terminate(name string) error {
	if err := exec.Command("pkill", "-x", name).Run(); err != nil {
		return fmt.Errorf("pkill %s: %w", name, err)
	}
	return nil
}

func (execSystem) PortFree(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

func (execSystem) ProbeRPC(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
