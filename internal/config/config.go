package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures every torsh setting: how to reach the transmission
// daemon, how to supervise it, where files live, and UI preferences.
type Config struct {
	RPC    RPC    `yaml:"rpc"`
	Daemon Daemon `yaml:"daemon"`
	Paths  Paths  `yaml:"paths"`
	UI     UI     `yaml:"ui"`
}

// RPC describes the daemon's control endpoint.
type RPC struct {
	Host     string  `yaml:"host"`
	Port     int     `yaml:"port"`
	Username string  `yaml:"username"`
	Password string  `yaml:"password"`
	Timeout  float64 `yaml:"timeout"` // seconds
}

// Daemon describes how transmission-daemon is launched and supervised.
type Daemon struct {
	Autostart      bool     `yaml:"autostart"`
	Binary         string   `yaml:"binary"`
	ExtraArgs      []string `yaml:"extra_args"`
	InstallMissing bool     `yaml:"install_missing"`
	RestartOnFail  bool     `yaml:"restart_on_fail"`
	LogPath        string   `yaml:"log_path"`
}

// Paths holds filesystem locations.
type Paths struct {
	DownloadDir string `yaml:"download_dir"`
	ConfigDir   string `yaml:"config_dir"`
}

// UI holds presentation preferences persisted across sessions.
type UI struct {
	RefreshInterval float64 `yaml:"refresh_interval"` // seconds
	SortColumn      int     `yaml:"sort_column"`      // 0 means unsorted, else 1..8
	SortDesc        bool    `yaml:"sort_desc"`
	FilterText      string  `yaml:"filter_text"`
	StatusFilter    string  `yaml:"status_filter"`
	ProgressFilter  string  `yaml:"progress_filter"`
}

const (
	defaultHost            = "localhost"
	defaultPort            = 9091
	defaultTimeout         = 10.0
	defaultBinary          = "transmission-daemon"
	defaultRefreshInterval = 2.5
	configFileName         = "config.yaml"
)

// DefaultDir returns the torsh config directory, honoring TORSH_CONFIG_DIR.
func DefaultDir() string {
	if dir := strings.TrimSpace(os.Getenv("TORSH_CONFIG_DIR")); dir != "" {
		return mustExpand(dir)
	}
	return mustExpand("~/.config/torsh")
}

// Default returns the built-in configuration rooted at the given config dir.
func Default(configDir string) Config {
	configDir = mustExpand(configDir)
	return Config{
		RPC: RPC{
			Host:    defaultHost,
			Port:    defaultPort,
			Timeout: defaultTimeout,
		},
		Daemon: Daemon{
			Autostart:      true,
			Binary:         defaultBinary,
			InstallMissing: true,
			RestartOnFail:  true,
			LogPath:        filepath.Join(configDir, "daemon.log"),
		},
		Paths: Paths{
			DownloadDir: mustExpand("~/Downloads/torrents"),
			ConfigDir:   configDir,
		},
		UI: UI{
			RefreshInterval: defaultRefreshInterval,
			StatusFilter:    "any",
			ProgressFilter:  "any",
		},
	}
}

// Load reads <configDir>/config.yaml, merges it over the defaults, and
// normalizes the result. A missing or corrupt file is not an error: the
// defaults win and the normalized config is persisted back so the file
// always reflects the effective settings.
func Load(configDir string) Config {
	cfg := Default(configDir)

	data, err := os.ReadFile(filepath.Join(cfg.Paths.ConfigDir, configFileName))
	if err == nil {
		// Unmarshal over the defaults so absent keys keep their values.
		// A malformed document leaves cfg partially filled; Normalize
		// repairs anything out of range.
		_ = yaml.Unmarshal(data, &cfg)
	}

	cfg = cfg.Normalize()
	_ = Save(cfg)
	return cfg
}

// Save atomically persists the normalized config to
// <config_dir>/config.yaml. The write is skipped entirely when the
// serialized content matches what is already on disk.
func Save(cfg Config) error {
	cfg = cfg.Normalize()

	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	target := filepath.Join(cfg.Paths.ConfigDir, configFileName)
	if err := os.MkdirAll(cfg.Paths.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	current, err := os.ReadFile(target)
	if err == nil && bytes.Equal(current, payload) {
		return nil
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Normalize clamps and defaults every field so downstream code never sees
// an out-of-range value.
func (c Config) Normalize() Config {
	c.Paths = c.Paths.normalize()
	c.RPC = c.RPC.normalize()
	c.Daemon = c.Daemon.normalize(c.Paths.ConfigDir)
	c.UI = c.UI.normalize()
	return c
}

func (r RPC) normalize() RPC {
	r.Host = strings.TrimSpace(r.Host)
	if r.Host == "" {
		r.Host = defaultHost
	}
	if r.Port < 1 || r.Port > 65535 {
		r.Port = defaultPort
	}
	if r.Timeout <= 0 {
		r.Timeout = defaultTimeout
	}
	if r.Timeout < 1 {
		r.Timeout = 1
	}
	return r
}

func (d Daemon) normalize(configDir string) Daemon {
	d.Binary = strings.TrimSpace(d.Binary)
	if d.Binary == "" {
		d.Binary = defaultBinary
	}
	args := d.ExtraArgs[:0]
	for _, arg := range d.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	d.ExtraArgs = args
	d.LogPath = strings.TrimSpace(d.LogPath)
	if d.LogPath == "" {
		d.LogPath = filepath.Join(configDir, "daemon.log")
	}
	d.LogPath = mustExpand(d.LogPath)
	return d
}

func (p Paths) normalize() Paths {
	p.DownloadDir = strings.TrimSpace(p.DownloadDir)
	if p.DownloadDir == "" {
		p.DownloadDir = "~/Downloads/torrents"
	}
	p.DownloadDir = mustExpand(p.DownloadDir)
	p.ConfigDir = strings.TrimSpace(p.ConfigDir)
	if p.ConfigDir == "" {
		p.ConfigDir = DefaultDir()
	}
	p.ConfigDir = mustExpand(p.ConfigDir)
	return p
}

func (u UI) normalize() UI {
	if u.RefreshInterval <= 0 {
		u.RefreshInterval = defaultRefreshInterval
	}
	if u.RefreshInterval < 0.5 {
		u.RefreshInterval = 0.5
	}
	if u.RefreshInterval > 30 {
		u.RefreshInterval = 30
	}
	if u.SortColumn < 0 || u.SortColumn > 8 {
		u.SortColumn = 0
	}
	switch u.StatusFilter {
	case "any", "active", "paused", "error":
	default:
		u.StatusFilter = "any"
	}
	switch u.ProgressFilter {
	case "any", "done", "under50":
	default:
		u.ProgressFilter = "any"
	}
	return u
}

// TimeoutDuration returns the RPC timeout as a duration.
func (r RPC) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout * float64(time.Second))
}

// RefreshEvery returns the refresh interval as a duration.
func (u UI) RefreshEvery() time.Duration {
	return time.Duration(u.RefreshInterval * float64(time.Second))
}

// SettingsPath returns the daemon's settings.json location under the
// config directory.
func (p Paths) SettingsPath() string {
	return filepath.Join(p.ConfigDir, "settings.json")
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
