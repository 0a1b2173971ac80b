package daemon

import "context"

// managerOrder is the package manager preference order; the first one
// found on PATH wins.
var managerOrder = []string{"apt-get", "apt", "brew", "dnf", "yum", "pacman", "zypper"}

// installSteps maps a package manager to its ordered command chain. The
// apt family refreshes indexes before installing; the chain aborts on
// the first failing step.
var installSteps = map[string][][]string{
	"apt-get": {
		{"sudo", "apt-get", "update"},
		{"sudo", "apt-get", "-y", "install", "transmission-daemon"},
	},
	"apt": {
		{"sudo", "apt", "update"},
		{"sudo", "apt", "-y", "install", "transmission-daemon"},
	},
	"brew": {
		{"brew", "install", "transmission"},
	},
	"dnf": {
		{"sudo", "dnf", "-y", "install", "transmission-daemon"},
	},
	"yum": {
		{"sudo", "yum", "-y", "install", "transmission-daemon"},
	},
	"pacman": {
		{"sudo", "pacman", "-Sy", "--noconfirm", "transmission-cli"},
	},
	"zypper": {
		{"sudo", "zypper", "--non-interactive", "install", "transmission-daemon"},
	},
}

func detectManager(sys System) string {
	for _, mgr := range managerOrder {
		if sys.LookPath(mgr) {
			return mgr
		}
	}
	return ""
}

func runInstall(ctx context.Context, sys System, manager, logPath string) error {
	for _, step := range installSteps[manager] {
		if err := sys.RunInstall(ctx, logPath, step); err != nil {
			return err
		}
	}
	return nil
}
