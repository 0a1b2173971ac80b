package transmission

import (
	"fmt"
	"time"

	humanize "github.com/dustin/go-humanize"
)

// Status is the normalized lifecycle state of a torrent.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusSeeding     Status = "seeding"
	StatusStopped     Status = "stopped"
	StatusPaused      Status = "paused"
	StatusChecking    Status = "checking"
	StatusQueued      Status = "queued"
	StatusError       Status = "error"
)

// Torrent status codes as reported by the daemon.
const (
	codeStopped      = 0
	codeCheckWait    = 1
	codeChecking     = 2
	codeDownloadWait = 3
	codeDownloading  = 4
	codeSeedWait     = 5
	codeSeeding      = 6
)

// Snapshot is the immutable per-torrent view produced from one poll.
// It is superseded wholesale on the next refresh cycle.
type Snapshot struct {
	ID          int64
	Name        string
	Percent     float64 // 0..100
	Status      Status
	ETA         string
	ETASeconds  int64
	RateDown    string
	RateUp      string
	RateDownRaw int64 // bytes/s
	RateUpRaw   int64 // bytes/s
	Ratio       float64
	Size        string
	Added       time.Time
	DownloadDir string
	Peers       int
	Seeders     int
	Leechers    int
	ErrorText   string
}

// SessionStats aggregates daemon-wide transfer state.
type SessionStats struct {
	DownloadSpeed int64 `json:"downloadSpeed"`
	UploadSpeed   int64 `json:"uploadSpeed"`
	ActiveCount   int   `json:"activeTorrentCount"`
	PausedCount   int   `json:"pausedTorrentCount"`
	TorrentCount  int   `json:"torrentCount"`
}

// SpeedLimits holds the global limits in KiB/s; zero means unlimited.
type SpeedLimits struct {
	Down int64
	Up   int64
}

// FileInfo describes one file inside a torrent.
type FileInfo struct {
	Index          int
	Name           string
	Length         int64
	BytesCompleted int64
	Priority       int // -1 low, 0 normal, 1 high
	Wanted         bool
}

// TrackerInfo summarizes one tracker's last announce.
type TrackerInfo struct {
	Host     string
	Status   string
	Peers    int
	Seeders  int
	Leechers int
}

// torrentRecord mirrors the torrent-get fields torsh requests. Pointer
// fields distinguish absent from zero where the derivation rules care.
type torrentRecord struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Status             int      `json:"status"`
	PercentDone        float64  `json:"percentDone"`
	ETA                int64    `json:"eta"`
	RateDownload       int64    `json:"rateDownload"`
	RateUpload         int64    `json:"rateUpload"`
	UploadRatio        float64  `json:"uploadRatio"`
	TotalSize          int64    `json:"totalSize"`
	SizeWhenDone       *float64 `json:"sizeWhenDone"`
	LeftUntilDone      *float64 `json:"leftUntilDone"`
	DownloadDir        string   `json:"downloadDir"`
	AddedDate          int64    `json:"addedDate"`
	PeersConnected     int      `json:"peersConnected"`
	PeersSendingToUs   int      `json:"peersSendingToUs"`
	PeersGettingFromUs int      `json:"peersGettingFromUs"`
	Error              int      `json:"error"`
	ErrorString        string   `json:"errorString"`
}

// torrentGetFields is the field list sent with every torrent-get.
var torrentGetFields = []string{
	"id", "name", "status", "percentDone", "eta",
	"rateDownload", "rateUpload", "uploadRatio", "totalSize",
	"sizeWhenDone", "leftUntilDone", "downloadDir", "addedDate",
	"peersConnected", "peersSendingToUs", "peersGettingFromUs",
	"error", "errorString",
}

// normalizeTorrent maps one raw daemon record to a Snapshot. This is the
// only place raw field variants are interpreted; callers never touch the
// wire schema.
func normalizeTorrent(rec torrentRecord) Snapshot {
	snap := Snapshot{
		ID:          rec.ID,
		Name:        rec.Name,
		Percent:     derivePercent(rec),
		Status:      normalizeStatus(rec),
		ETA:         formatETA(rec.ETA),
		ETASeconds:  rec.ETA,
		RateDown:    formatRate(rec.RateDownload),
		RateUp:      formatRate(rec.RateUpload),
		RateDownRaw: rec.RateDownload,
		RateUpRaw:   rec.RateUpload,
		Ratio:       maxFloat(rec.UploadRatio, 0),
		Size:        humanize.IBytes(uint64(maxInt64(rec.TotalSize, 0))),
		DownloadDir: rec.DownloadDir,
		Peers:       rec.PeersConnected,
		Seeders:     rec.PeersSendingToUs,
		Leechers:    rec.PeersGettingFromUs,
		ErrorText:   rec.ErrorString,
	}
	if rec.AddedDate > 0 {
		snap.Added = time.Unix(rec.AddedDate, 0)
	}
	return snap
}

// derivePercent prefers the size-based derivation when the daemon reports
// both sizeWhenDone and leftUntilDone; otherwise it falls back to the
// reported completion fraction, scaling by 100 only when it is <= 1.0.
// The result is always clamped to [0, 100].
func derivePercent(rec torrentRecord) float64 {
	if rec.SizeWhenDone != nil && *rec.SizeWhenDone > 0 && rec.LeftUntilDone != nil {
		percent := (*rec.SizeWhenDone - *rec.LeftUntilDone) / *rec.SizeWhenDone * 100
		return clamp(percent, 0, 100)
	}
	raw := rec.PercentDone
	if raw <= 1.0 {
		raw *= 100
	}
	return clamp(raw, 0, 100)
}

func normalizeStatus(rec torrentRecord) Status {
	if rec.Error != 0 {
		return StatusError
	}
	switch rec.Status {
	case codeStopped:
		return StatusStopped
	case codeCheckWait, codeChecking:
		return StatusChecking
	case codeDownloadWait, codeSeedWait:
		return StatusQueued
	case codeDownloading:
		return StatusDownloading
	case codeSeeding:
		return StatusSeeding
	default:
		return StatusStopped
	}
}

// formatETA renders the daemon's ETA convention: positive seconds become
// a human duration, negative means unknown/infinite, zero or absent a dash.
func formatETA(secs int64) string {
	switch {
	case secs > 0:
		return formatDuration(time.Duration(secs) * time.Second)
	case secs < 0:
		return "∞"
	default:
		return "—"
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%dd", days)
	}
}

func formatRate(bytesPerSec int64) string {
	return humanize.IBytes(uint64(maxInt64(bytesPerSec, 0))) + "/s"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
