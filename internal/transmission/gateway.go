package transmission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/torshproject/torsh/internal/config"
)

// Canonical retry policy: 0.6s base delay, x1.6 per attempt, capped at 5s,
// default 2 retries (3 attempts total). The outer deadline comes from the
// configured RPC timeout.
const (
	defaultRetries    = 2
	backoffBase       = 600 * time.Millisecond
	backoffMultiplier = 1.6
	backoffCap        = 5 * time.Second
)

// caller abstracts the low-level RPC exchange so Gateway tests can swap
// in a fake transport.
type caller interface {
	roundTrip(ctx context.Context, method string, args, dest any) error
}

// Gateway wraps the daemon's control API with retry, backoff, and
// normalization. All methods are safe for concurrent use; they are
// expected to run off the UI goroutine.
type Gateway struct {
	cfg config.RPC
	log zerolog.Logger

	mu      sync.Mutex
	handle  caller
	dial    func(config.RPC) caller
	sleep   func(context.Context, time.Duration) error
	retries int
}

// NewGateway builds a Gateway for the configured endpoint.
func NewGateway(cfg config.RPC, log zerolog.Logger) *Gateway {
	return &Gateway{
		cfg: cfg,
		log: log.With().Str("component", "rpc").Logger(),
		dial: func(cfg config.RPC) caller {
			return newRPCClient(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		},
		sleep:   sleepCtx,
		retries: defaultRetries,
	}
}

// SetPort repoints the gateway, discarding the cached handle. Used when
// the supervisor resolves a port conflict.
func (g *Gateway) SetPort(port int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.Port = port
	g.handle = nil
}

func (g *Gateway) client() caller {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.handle == nil {
		g.handle = g.dial(g.cfg)
	}
	return g.handle
}

// invalidate drops the cached handle so the next attempt reconnects and
// redoes the session-id handshake.
func (g *Gateway) invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handle = nil
}

// call runs one RPC method with the canonical retry policy. Transport
// errors invalidate the handle and are retried with exponential backoff;
// protocol errors surface immediately. The whole sequence is bounded by
// the configured timeout, which yields a TimeoutError distinct from the
// last transport failure.
func (g *Gateway) call(ctx context.Context, method string, args, dest any) error {
	return g.callN(ctx, method, args, dest, g.retries)
}

func (g *Gateway) callN(ctx context.Context, method string, args, dest any, retries int) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, g.cfg.TimeoutDuration())
	defer cancel()

	delay := backoffBase
	var last error
	for attempt := 0; attempt <= retries; attempt++ {
		err := g.client().roundTrip(ctx, method, args, dest)
		if err == nil {
			return nil
		}
		var protoErr *ProtocolError
		if errors.As(err, &protoErr) {
			return err
		}

		g.invalidate()
		last = err
		g.log.Debug().Err(err).Str("method", method).Int("attempt", attempt+1).Int("attempts", retries+1).Msg("rpc attempt failed")

		if attempt < retries {
			if err := g.sleep(ctx, delay); err != nil {
				return &TimeoutError{Method: method, Elapsed: time.Since(start)}
			}
			delay = time.Duration(float64(delay) * backoffMultiplier)
			if delay > backoffCap {
				delay = backoffCap
			}
		}
	}
	if ctx.Err() != nil {
		return &TimeoutError{Method: method, Elapsed: time.Since(start)}
	}
	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ping checks daemon reachability with a single cheap call and one retry.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.callN(ctx, "session-get", nil, nil, 1)
}

// ListTorrents fetches all torrents and normalizes them into snapshots.
func (g *Gateway) ListTorrents(ctx context.Context) ([]Snapshot, error) {
	var payload struct {
		Torrents []torrentRecord `json:"torrents"`
	}
	args := map[string]any{"fields": torrentGetFields}
	if err := g.call(ctx, "torrent-get", args, &payload); err != nil {
		return nil, err
	}
	snaps := make([]Snapshot, 0, len(payload.Torrents))
	for _, rec := range payload.Torrents {
		snaps = append(snaps, normalizeTorrent(rec))
	}
	return snaps, nil
}

// Stats fetches aggregate session statistics. Older daemons without the
// session-stats method fall back to session-get silently; counts missing
// from the fallback stay zero.
func (g *Gateway) Stats(ctx context.Context) (SessionStats, error) {
	var stats SessionStats
	err := g.call(ctx, "session-stats", nil, &stats)
	if err == nil {
		return stats, nil
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		return SessionStats{}, err
	}
	if fallbackErr := g.call(ctx, "session-get", nil, &stats); fallbackErr != nil {
		return SessionStats{}, fallbackErr
	}
	return stats, nil
}

// Add submits a magnet link or torrent file path, downloading into dir.
// Torrents are started immediately, matching the daemon default.
func (g *Gateway) Add(ctx context.Context, link, dir string) (int64, string, error) {
	var payload struct {
		Added struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"torrent-added"`
		Duplicate struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"torrent-duplicate"`
	}
	args := map[string]any{
		"filename":     link,
		"download-dir": dir,
		"paused":       false,
	}
	if err := g.call(ctx, "torrent-add", args, &payload); err != nil {
		return 0, "", err
	}
	if payload.Added.ID != 0 {
		return payload.Added.ID, payload.Added.Name, nil
	}
	return payload.Duplicate.ID, payload.Duplicate.Name, nil
}

// Start force-starts the given torrents, bypassing the queue.
func (g *Gateway) Start(ctx context.Context, ids []int64) error {
	return g.call(ctx, "torrent-start-now", idArgs(ids), nil)
}

// Stop pauses the given torrents.
func (g *Gateway) Stop(ctx context.Context, ids []int64) error {
	return g.call(ctx, "torrent-stop", idArgs(ids), nil)
}

// Remove deletes the given torrents, optionally with their data.
func (g *Gateway) Remove(ctx context.Context, ids []int64, deleteData bool) error {
	args := idArgs(ids)
	args["delete-local-data"] = deleteData
	return g.call(ctx, "torrent-remove", args, nil)
}

// Move relocates torrent data to dir.
func (g *Gateway) Move(ctx context.Context, ids []int64, dir string) error {
	args := idArgs(ids)
	args["location"] = dir
	args["move"] = true
	return g.call(ctx, "torrent-set-location", args, nil)
}

// Verify re-checks local data for the given torrents.
func (g *Gateway) Verify(ctx context.Context, ids []int64) error {
	return g.call(ctx, "torrent-verify", idArgs(ids), nil)
}

// SpeedLimits reads the global limits; a disabled limit reads as zero.
func (g *Gateway) SpeedLimits(ctx context.Context) (SpeedLimits, error) {
	var payload struct {
		Down        int64 `json:"speed-limit-down"`
		DownEnabled bool  `json:"speed-limit-down-enabled"`
		Up          int64 `json:"speed-limit-up"`
		UpEnabled   bool  `json:"speed-limit-up-enabled"`
	}
	if err := g.call(ctx, "session-get", nil, &payload); err != nil {
		return SpeedLimits{}, err
	}
	limits := SpeedLimits{}
	if payload.DownEnabled {
		limits.Down = payload.Down
	}
	if payload.UpEnabled {
		limits.Up = payload.Up
	}
	return limits, nil
}

// SetSpeedLimits writes the global limits in KiB/s; zero disables one.
func (g *Gateway) SetSpeedLimits(ctx context.Context, limits SpeedLimits) error {
	args := map[string]any{
		"speed-limit-down":         maxInt64(limits.Down, 0),
		"speed-limit-down-enabled": limits.Down > 0,
		"speed-limit-up":           maxInt64(limits.Up, 0),
		"speed-limit-up-enabled":   limits.Up > 0,
	}
	return g.call(ctx, "session-set", args, nil)
}

// TorrentSpeed reads one torrent's limits; disabled limits read as zero.
func (g *Gateway) TorrentSpeed(ctx context.Context, id int64) (SpeedLimits, error) {
	var payload struct {
		Torrents []struct {
			DownloadLimit   int64 `json:"downloadLimit"`
			DownloadLimited bool  `json:"downloadLimited"`
			UploadLimit     int64 `json:"uploadLimit"`
			UploadLimited   bool  `json:"uploadLimited"`
		} `json:"torrents"`
	}
	args := map[string]any{
		"ids":    []int64{id},
		"fields": []string{"downloadLimit", "downloadLimited", "uploadLimit", "uploadLimited"},
	}
	if err := g.call(ctx, "torrent-get", args, &payload); err != nil {
		return SpeedLimits{}, err
	}
	if len(payload.Torrents) == 0 {
		return SpeedLimits{}, nil
	}
	rec := payload.Torrents[0]
	limits := SpeedLimits{}
	if rec.DownloadLimited {
		limits.Down = rec.DownloadLimit
	}
	if rec.UploadLimited {
		limits.Up = rec.UploadLimit
	}
	return limits, nil
}

// SetTorrentSpeed writes one torrent's limits in KiB/s; zero disables.
func (g *Gateway) SetTorrentSpeed(ctx context.Context, id int64, limits SpeedLimits) error {
	args := map[string]any{
		"ids":             []int64{id},
		"downloadLimit":   maxInt64(limits.Down, 0),
		"downloadLimited": limits.Down > 0,
		"uploadLimit":     maxInt64(limits.Up, 0),
		"uploadLimited":   limits.Up > 0,
	}
	return g.call(ctx, "torrent-set", args, nil)
}

// Files lists a torrent's files with completion and priority state.
func (g *Gateway) Files(ctx context.Context, id int64) ([]FileInfo, error) {
	var payload struct {
		Torrents []struct {
			Files []struct {
				Name           string `json:"name"`
				Length         int64  `json:"length"`
				BytesCompleted int64  `json:"bytesCompleted"`
			} `json:"files"`
			FileStats []struct {
				Priority int  `json:"priority"`
				Wanted   bool `json:"wanted"`
			} `json:"fileStats"`
		} `json:"torrents"`
	}
	args := map[string]any{
		"ids":    []int64{id},
		"fields": []string{"files", "fileStats"},
	}
	if err := g.call(ctx, "torrent-get", args, &payload); err != nil {
		return nil, err
	}
	if len(payload.Torrents) == 0 {
		return nil, nil
	}
	rec := payload.Torrents[0]
	files := make([]FileInfo, 0, len(rec.Files))
	for i, f := range rec.Files {
		info := FileInfo{
			Index:          i,
			Name:           f.Name,
			Length:         f.Length,
			BytesCompleted: f.BytesCompleted,
			Wanted:         true,
		}
		if i < len(rec.FileStats) {
			info.Priority = rec.FileStats[i].Priority
			info.Wanted = rec.FileStats[i].Wanted
		}
		files = append(files, info)
	}
	return files, nil
}

// SetPriority applies per-file priorities by file index.
func (g *Gateway) SetPriority(ctx context.Context, id int64, high, normal, low []int) error {
	args := map[string]any{"ids": []int64{id}}
	if len(high) > 0 {
		args["priority-high"] = high
	}
	if len(normal) > 0 {
		args["priority-normal"] = normal
	}
	if len(low) > 0 {
		args["priority-low"] = low
	}
	if len(args) == 1 {
		return nil
	}
	return g.call(ctx, "torrent-set", args, nil)
}

// Trackers reports per-tracker announce state for one torrent.
func (g *Gateway) Trackers(ctx context.Context, id int64) ([]TrackerInfo, error) {
	var payload struct {
		Torrents []struct {
			TrackerStats []struct {
				Host                  string `json:"host"`
				Announce              string `json:"announce"`
				LastAnnounceResult    string `json:"lastAnnounceResult"`
				LastAnnouncePeerCount int    `json:"lastAnnouncePeerCount"`
				SeederCount           int    `json:"seederCount"`
				LeecherCount          int    `json:"leecherCount"`
			} `json:"trackerStats"`
		} `json:"torrents"`
	}
	args := map[string]any{
		"ids":    []int64{id},
		"fields": []string{"trackerStats"},
	}
	if err := g.call(ctx, "torrent-get", args, &payload); err != nil {
		return nil, err
	}
	if len(payload.Torrents) == 0 {
		return nil, nil
	}
	stats := payload.Torrents[0].TrackerStats
	trackers := make([]TrackerInfo, 0, len(stats))
	for _, t := range stats {
		host := t.Host
		if host == "" {
			host = t.Announce
		}
		trackers = append(trackers, TrackerInfo{
			Host:     host,
			Status:   t.LastAnnounceResult,
			Peers:    t.LastAnnouncePeerCount,
			Seeders:  t.SeederCount,
			Leechers: t.LeecherCount,
		})
	}
	return trackers, nil
}

func idArgs(ids []int64) map[string]any {
	return map[string]any{"ids": ids}
}
