package segmenter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vodsmith/internal/blobstore"
	"vodsmith/internal/job"
	"vodsmith/internal/logging"
	"vodsmith/internal/media/ffprobe"
	"vodsmith/internal/msgqueue"
	"vodsmith/internal/services"
	"vodsmith/internal/videostore"
)

// defaultMaxHeight is assumed when the probe finds no video stream height.
const defaultMaxHeight = 720

// Options carries the segmenter's tunables.
type Options struct {
	WindowSeconds    float64
	ProbePrefixBytes int64
	SendBatchSize    int
	FFprobeBin       string
	ScratchDir       string
}

// Segmenter turns one uploaded video into a plan of fixed-length windows and
// publishes a work item per window.
type Segmenter struct {
	raw    blobstore.Store
	jobs   msgqueue.Queue
	videos videostore.Store
	opts   Options
	logger *slog.Logger
}

// New builds a segmenter. A nil logger disables logging.
func New(raw blobstore.Store, jobs msgqueue.Queue, videos videostore.Store, opts Options, logger *slog.Logger) *Segmenter {
	if opts.SendBatchSize <= 0 {
		opts.SendBatchSize = 10
	}
	return &Segmenter{
		raw:    raw,
		jobs:   jobs,
		videos: videos,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "segmenter"),
	}
}

// Process handles one segment request end to end and reports how many work
// items it published. It probes a prefix of the raw object rather than the
// whole file; container metadata lives up front, so a few megabytes are
// enough to read duration and stream layout.
//
// Effects are idempotent per video, so a redelivered request replays safely.
func (s *Segmenter) Process(ctx context.Context, req job.SegmentRequest) (int, error) {
	ctx = services.WithVideoID(ctx, req.VideoID)
	logger := logging.WithContext(ctx, s.logger)

	probePath := filepath.Join(s.opts.ScratchDir, fmt.Sprintf("probe-%s.mp4", req.VideoID))
	if err := blobstore.DownloadRangeToFile(ctx, s.raw, req.RawKey, probePath, s.opts.ProbePrefixBytes); err != nil {
		return 0, services.Wrap(services.ErrStorage, "segmenter", "download", req.RawKey, err)
	}
	defer os.Remove(probePath)

	result, err := ffprobe.Inspect(ctx, s.opts.FFprobeBin, probePath)
	if err != nil {
		s.markProbeFailed(ctx, req, logger)
		return 0, services.Wrap(services.ErrExternalTool, "segmenter", "probe", req.VideoID, err)
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		s.markProbeFailed(ctx, req, logger)
		return 0, services.Wrap(services.ErrExternalTool, "segmenter", "probe",
			fmt.Sprintf("no usable duration for %s", req.VideoID), nil)
	}
	height := result.MaxVideoHeight()
	if height == 0 {
		height = defaultMaxHeight
	}

	windows := job.Windows(duration, s.opts.WindowSeconds)
	if err := s.videos.Init(ctx, req.VideoID, req.RawKey, duration, len(windows)); err != nil {
		return 0, err
	}

	bodies := make([][]byte, 0, len(windows))
	for i, window := range windows {
		item := job.WorkItem{
			VideoID:       req.VideoID,
			RawBucket:     req.RawBucket,
			RawKey:        req.RawKey,
			Start:         window.Start,
			End:           window.End,
			Sequence:      i + 1,
			TotalChunks:   len(windows),
			MaxResolution: height,
		}
		body, err := json.Marshal(item)
		if err != nil {
			return 0, services.Wrap(services.ErrValidation, "segmenter", "encode", item.WindowID(), err)
		}
		bodies = append(bodies, body)
	}

	for start := 0; start < len(bodies); start += s.opts.SendBatchSize {
		end := start + s.opts.SendBatchSize
		if end > len(bodies) {
			end = len(bodies)
		}
		if err := s.jobs.SendBatch(ctx, bodies[start:end]); err != nil {
			return 0, err
		}
	}

	logger.Info("video segmented",
		logging.Float64("duration_seconds", duration),
		logging.Int("chunks", len(windows)),
		logging.Int("max_height", height))
	return len(windows), nil
}

// markProbeFailed surfaces an unprobeable upload in the status store. The
// request itself is still retried, so a transient tool failure recovers and
// overwrites this status on the next delivery.
func (s *Segmenter) markProbeFailed(ctx context.Context, req job.SegmentRequest, logger *slog.Logger) {
	if err := s.videos.Init(ctx, req.VideoID, req.RawKey, 0, 0); err != nil {
		logger.Warn("record probe failure", logging.Error(err))
		return
	}
	if err := s.videos.SetStatus(ctx, req.VideoID, videostore.StatusFailedProbe); err != nil {
		logger.Warn("record probe failure", logging.Error(err))
	}
}
