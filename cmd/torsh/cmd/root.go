package cmd

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/torshproject/torsh/internal/app"
	"github.com/torshproject/torsh/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	hostFlag        = "host"
	portFlag        = "port"
	userFlag        = "user"
	passwordFlag    = "password"
	downloadDirFlag = "download-dir"
	configDirFlag   = "config-dir"
	noAutostartFlag = "no-autostart"
	noInstallFlag   = "no-install-missing"
	logLevelFlag    = "log-level"
	logPathFlag     = "log-path"
	refreshFlag     = "refresh"
	timeoutFlag     = "timeout"
	binaryFlag      = "binary"
	noRestartFlag   = "no-restart"
)

// Environment-only keys carrying the positive-sense daemon settings and
// the daemon log override.
const (
	autostartKey      = "autostart"
	installMissingKey = "install-missing"
	restartOnFailKey  = "restart-on-fail"
	daemonLogKey      = "daemon-log"
)

var rootCmd = &cobra.Command{
	Use:     "torsh",
	Short:   "Terminal UI for transmission-daemon",
	Version: version,
	Long: `torsh drives a local or remote transmission-daemon from the terminal:
it starts the daemon when needed, polls it, and lets you manage
torrents with single keystrokes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.SetEnvPrefix("torsh")
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
		viper.AutomaticEnv()

		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}
		return bindEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		opts := app.Options{
			ConfigDir: viper.GetString(configDirFlag),
			LogPath:   viper.GetString(logPathFlag),
			LogLevel:  viper.GetString(logLevelFlag),
			Version:   version,
			Overrides: applyFlags,
		}
		return app.Run(ctx, opts)
	},
}

// bindEnv wires the environment names beyond the prefixed flag
// derivations: the daemon binary alias and the positive-sense booleans
// plus the daemon log path, none of which have a flag of their own.
func bindEnv() error {
	for _, binding := range [][]string{
		{binaryFlag, "TORSH_DAEMON", "TORSH_BINARY"},
		{autostartKey, "TORSH_AUTOSTART"},
		{installMissingKey, "TORSH_INSTALL_MISSING"},
		{restartOnFailKey, "TORSH_RESTART_ON_FAIL"},
		{daemonLogKey, "TORSH_LOG"},
	} {
		if err := viper.BindEnv(binding...); err != nil {
			return err
		}
	}
	return nil
}

// envBool reads a boolean the way the config surface documents it: any
// value other than "false" counts as true.
func envBool(key string) bool {
	return !strings.EqualFold(viper.GetString(key), "false")
}

// applyFlags layers explicit flag and environment values over the
// loaded config file. Unset flags leave the file values alone.
func applyFlags(cfg *config.Config) {
	if viper.IsSet(hostFlag) {
		cfg.RPC.Host = viper.GetString(hostFlag)
	}
	if viper.IsSet(portFlag) {
		cfg.RPC.Port = viper.GetInt(portFlag)
	}
	if viper.IsSet(userFlag) {
		cfg.RPC.Username = viper.GetString(userFlag)
	}
	if viper.IsSet(passwordFlag) {
		cfg.RPC.Password = viper.GetString(passwordFlag)
	}
	if viper.IsSet(downloadDirFlag) {
		cfg.Paths.DownloadDir = viper.GetString(downloadDirFlag)
	}
	if viper.IsSet(refreshFlag) {
		cfg.UI.RefreshInterval = viper.GetFloat64(refreshFlag)
	}
	if viper.IsSet(timeoutFlag) {
		cfg.RPC.Timeout = viper.GetFloat64(timeoutFlag)
	}
	if viper.IsSet(binaryFlag) {
		cfg.Daemon.Binary = viper.GetString(binaryFlag)
	}
	if viper.IsSet(autostartKey) {
		cfg.Daemon.Autostart = envBool(autostartKey)
	}
	if viper.IsSet(installMissingKey) {
		cfg.Daemon.InstallMissing = envBool(installMissingKey)
	}
	if viper.IsSet(restartOnFailKey) {
		cfg.Daemon.RestartOnFail = envBool(restartOnFailKey)
	}
	if viper.IsSet(daemonLogKey) {
		cfg.Daemon.LogPath = viper.GetString(daemonLogKey)
	}
	if viper.GetBool(noAutostartFlag) {
		cfg.Daemon.Autostart = false
	}
	if viper.GetBool(noInstallFlag) {
		cfg.Daemon.InstallMissing = false
	}
	if viper.GetBool(noRestartFlag) {
		cfg.Daemon.RestartOnFail = false
	}
}

func Execute() error {
	flags := rootCmd.PersistentFlags()
	flags.String(hostFlag, "", "RPC host (overrides config file)")
	flags.Int(portFlag, 0, "RPC port (overrides config file)")
	flags.String(userFlag, "", "RPC username")
	flags.String(passwordFlag, "", "RPC password")
	flags.String(downloadDirFlag, "", "default download directory")
	flags.String(configDirFlag, "", "torsh config directory")
	flags.Bool(noAutostartFlag, false, "do not start transmission-daemon")
	flags.Bool(noInstallFlag, false, "do not install a missing daemon")
	flags.String(logLevelFlag, "info", "log level (trace, debug, info, warn, error)")
	flags.String(logPathFlag, "", "torsh log file (defaults to <config-dir>/torsh.log)")
	flags.Float64(refreshFlag, 0, "refresh interval in seconds")
	flags.Float64(timeoutFlag, 0, "RPC timeout in seconds")
	flags.String(binaryFlag, "", "daemon binary name")
	flags.Bool(noRestartFlag, false, "do not restart the daemon on failed polls")

	if err := viper.BindPFlags(flags); err != nil {
		return err
	}

	return rootCmd.ExecuteContext(context.Background())
}
