package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeSettings merges the chosen ports into the daemon's settings.json,
// leaving every other key the daemon or the operator has written
// untouched. Only rpc-port and peer-port are ever overwritten; bind
// address, auth, and download dir stay whatever the operator configured
// (the download dir torsh manages travels on the launch argv instead).
// The file is replaced atomically.
func writeSettings(path string, rpcPort, peerPort int) error {
	settings := map[string]any{}
	if raw, err := os.ReadFile(path); err == nil {
		// A corrupt file is treated as empty rather than fatal; the
		// daemon rewrites defaults on its next clean shutdown.
		_ = json.Unmarshal(raw, &settings)
	}

	settings["rpc-port"] = rpcPort
	settings["peer-port"] = peerPort

	out, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(out, '\n'), 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
