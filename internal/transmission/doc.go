// Package transmission is the single point of contact with
// transmission-daemon's RPC interface. The low-level client speaks the
// JSON-over-HTTP protocol (session-id handshake included); the Gateway
// wraps every call with bounded retry, backoff, and an outer deadline,
// and normalizes raw daemon records into the snapshot types the rest of
// the application consumes.
package transmission
