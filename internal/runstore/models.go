package runstore

import "time"

// Status represents the lifecycle of a run.
type Status string

const (
	StatusStarted   Status = "started"
	StatusDryRun    Status = "dry-run"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusStarted, StatusDryRun, StatusCompleted, StatusFailed}

// Valid reports whether the status is one of the known lifecycle values.
func (s Status) Valid() bool {
	for _, status := range allStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Run is one recorded end-to-end pipeline execution for a single video.
type Run struct {
	ID         string
	VideoID    string
	Engine     string
	Language   string
	ChunkSec   int
	OverlapSec int
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Video is the upserted marker row a run hangs off.
type Video struct {
	VideoID   string
	AudioPath string
	UpdatedAt time.Time
}
