package cmd

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/torshproject/torsh/internal/config"
)

func TestEnvOverridesDocumentedNames(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("TORSH_DAEMON", "transmission-daemon-4")
	t.Setenv("TORSH_AUTOSTART", "false")
	t.Setenv("TORSH_INSTALL_MISSING", "false")
	t.Setenv("TORSH_RESTART_ON_FAIL", "false")
	t.Setenv("TORSH_LOG", "/var/log/transmission/daemon.log")

	if err := bindEnv(); err != nil {
		t.Fatalf("bindEnv() = %v", err)
	}

	cfg := config.Default(t.TempDir())
	applyFlags(&cfg)

	if cfg.Daemon.Binary != "transmission-daemon-4" {
		t.Fatalf("Binary = %q, want TORSH_DAEMON value", cfg.Daemon.Binary)
	}
	if cfg.Daemon.Autostart {
		t.Fatal("Autostart = true, want false from TORSH_AUTOSTART")
	}
	if cfg.Daemon.InstallMissing {
		t.Fatal("InstallMissing = true, want false from TORSH_INSTALL_MISSING")
	}
	if cfg.Daemon.RestartOnFail {
		t.Fatal("RestartOnFail = true, want false from TORSH_RESTART_ON_FAIL")
	}
	if cfg.Daemon.LogPath != "/var/log/transmission/daemon.log" {
		t.Fatalf("LogPath = %q, want TORSH_LOG value", cfg.Daemon.LogPath)
	}
}

func TestEnvBinaryAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("TORSH_BINARY", "transmission-daemon-alt")
	if err := bindEnv(); err != nil {
		t.Fatalf("bindEnv() = %v", err)
	}

	cfg := config.Default(t.TempDir())
	applyFlags(&cfg)
	if cfg.Daemon.Binary != "transmission-daemon-alt" {
		t.Fatalf("Binary = %q, want TORSH_BINARY value", cfg.Daemon.Binary)
	}
}

func TestEnvBoolAnyValueButFalseIsTrue(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("TORSH_AUTOSTART", "yes")
	if err := bindEnv(); err != nil {
		t.Fatalf("bindEnv() = %v", err)
	}

	cfg := config.Default(t.TempDir())
	cfg.Daemon.Autostart = false
	applyFlags(&cfg)
	if !cfg.Daemon.Autostart {
		t.Fatal("Autostart = false, want true for any value other than \"false\"")
	}
}
