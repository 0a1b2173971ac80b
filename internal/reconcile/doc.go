// Package reconcile holds the per-cycle decision logic of the refresh
// loop: completion notifications, one-time auto-verify, bounded retry of
// errored torrents, auto-resume, and deduplication of connection and
// failure events. It is pure bookkeeping; issuing the resulting RPC
// calls is the caller's job.
package reconcile
