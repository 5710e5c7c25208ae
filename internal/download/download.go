// Package download tracks download jobs and drives the external download
// daemon that executes them.
package download

import (
	"context"
	"time"
)

// SourceKind classifies where a job's payload comes from.
type SourceKind string

const (
	SourceFeed   SourceKind = "feed"
	SourceMagnet SourceKind = "magnet"
	SourceDirect SourceKind = "direct"
	SourceFile   SourceKind = "file"
)

// ValidSourceKind reports whether k is a known source kind.
func ValidSourceKind(k SourceKind) bool {
	switch k {
	case SourceFeed, SourceMagnet, SourceDirect, SourceFile:
		return true
	}
	return false
}

// Status tracks job state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusDone        Status = "done"
	StatusError       Status = "error"
)

// Job is one tracked download.
type Job struct {
	ID          int64
	MediaID     *string // catalog asset the payload belongs to, if known
	Status      Status
	SourceKind  SourceKind
	SourceURL   string
	Progress    float64 // 0-100
	Error       string
	GID         string // daemon-side identifier, set exactly once
	RequestedBy string
	AddedAt     time.Time
	UpdatedAt   time.Time
}

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	MediaID     *string
	Status      *Status
	RequestedBy *string
	Active      bool // only pending and downloading
	Limit       int
	Offset      int
}

// DaemonStatus is the live state of one transfer inside the daemon.
type DaemonStatus struct {
	GID             string
	Status          string
	TotalLength     int64
	CompletedLength int64
	DownloadSpeed   int64
	ErrorMessage    string
	Files           []string
}

// Progress converts the byte counters to a 0-100 percentage.
func (s *DaemonStatus) Progress() float64 {
	if s.TotalLength <= 0 {
		return 0
	}
	return float64(s.CompletedLength) / float64(s.TotalLength) * 100
}

// GlobalStat aggregates daemon-wide transfer counters.
type GlobalStat struct {
	DownloadSpeed int64
	UploadSpeed   int64
	NumActive     int
	NumWaiting    int
	NumStopped    int
}

// EventKind identifies a daemon push notification.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is a daemon push notification about one transfer.
type Event struct {
	Kind EventKind
	GID  string
}

// Daemon is the download daemon control surface.
type Daemon interface {
	// AddURI submits a payload and returns the daemon-side GID.
	AddURI(ctx context.Context, uris []string, options map[string]string) (string, error)
	// TellStatus reports the live state of one transfer.
	TellStatus(ctx context.Context, gid string) (*DaemonStatus, error)
	// Remove cancels a transfer. Removing an unknown GID is not an error.
	Remove(ctx context.Context, gid string) error
	// GlobalStat reports daemon-wide counters.
	GlobalStat(ctx context.Context) (*GlobalStat, error)
	// PauseAll suspends every active transfer.
	PauseAll(ctx context.Context) error
	// UnpauseAll resumes every paused transfer.
	UnpauseAll(ctx context.Context) error
	// PurgeResults drops the daemon's completed and failed result list.
	PurgeResults(ctx context.Context) error
	// Events delivers push notifications. Closed when the connection ends.
	Events() <-chan Event
}
