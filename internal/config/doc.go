// Package config loads, normalizes, and atomically persists torsh's
// configuration file (~/.config/torsh/config.yaml by default). Malformed
// or missing settings never fail the application; they fall back to
// defaults and are written back normalized.
package config
