package videostore

import (
	"context"
	"time"
)

// Status is a video's lifecycle state. Failure states name the stage that
// gave up so operators can tell a bad upload from a bad encode.
type Status string

const (
	StatusProcessing      Status = "PROCESSING"
	StatusReady           Status = "READY"
	StatusSkipped         Status = "SKIPPED"
	StatusFailedProbe     Status = "FAILED_PROBE"
	StatusFailedDownload  Status = "FAILED_DOWNLOAD"
	StatusFailedTranscode Status = "FAILED_TRANSCODE"
	StatusFailedUpload    Status = "FAILED_UPLOAD"
	StatusFailedSignal    Status = "FAILED_SIGNAL"
)

// Terminal reports whether the status ends the video's pipeline run.
func (s Status) Terminal() bool {
	return s != StatusProcessing
}

// Video is one tracked upload and its transcoding progress.
type Video struct {
	ID              string
	Status          Status
	RawKey          string
	DurationSeconds float64
	TotalChunks     int
	ChunksCompleted int
	Renditions      []string
	PlaybackURL     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Progress is the state observed immediately after a completion is recorded.
// Complete is true exactly once all chunks have reported in.
type Progress struct {
	Completed  int
	Total      int
	Renditions []string
}

// Complete reports whether every chunk has recorded a completion.
func (p Progress) Complete() bool {
	return p.Total > 0 && p.Completed >= p.Total
}

// Store tracks per-video progress. RecordCompletion must be atomic and
// commutative so concurrent workers and redeliveries cannot lose counts.
type Store interface {
	Init(ctx context.Context, videoID, rawKey string, durationSeconds float64, totalChunks int) error
	RecordCompletion(ctx context.Context, videoID string, renditions []string) (Progress, error)
	SetStatus(ctx context.Context, videoID string, status Status) error
	SetReady(ctx context.Context, videoID, playbackURL string) error
	Get(ctx context.Context, videoID string) (Video, error)
	List(ctx context.Context) ([]Video, error)
}
