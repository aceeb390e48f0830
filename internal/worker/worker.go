package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vodsmith/internal/blobstore"
	"vodsmith/internal/job"
	"vodsmith/internal/ladder"
	"vodsmith/internal/logging"
	"vodsmith/internal/manifest"
	"vodsmith/internal/media/hlsenc"
	"vodsmith/internal/msgqueue"
	"vodsmith/internal/services"
	"vodsmith/internal/videostore"
)

// Options carries the worker's tunables.
type Options struct {
	ScratchDir         string
	SegmentSeconds     int
	CountSkippedChunks bool
}

// Worker transcodes one chunk window across the quality ladder and reports
// the result. Its effects are idempotent: renditions upload to fixed keys as
// pure overwrites, so a redelivered work item replays without damage.
type Worker struct {
	raw         blobstore.Store
	processed   blobstore.Store
	completions msgqueue.Queue
	videos      videostore.Store
	encoder     hlsenc.Client
	opts        Options
	logger      *slog.Logger
}

// New builds a worker. A nil logger disables logging.
func New(raw, processed blobstore.Store, completions msgqueue.Queue, videos videostore.Store, encoder hlsenc.Client, opts Options, logger *slog.Logger) *Worker {
	return &Worker{
		raw:         raw,
		processed:   processed,
		completions: completions,
		videos:      videos,
		encoder:     encoder,
		opts:        opts,
		logger:      logging.NewComponentLogger(logger, "worker"),
	}
}

// ProcessItem handles one work item end to end. A nil return means the item
// may be acknowledged; an error leaves it leased so the queue redelivers it
// after the visibility window.
func (w *Worker) ProcessItem(ctx context.Context, item job.WorkItem) error {
	windowID := item.WindowID()
	ctx = services.WithChunk(services.WithVideoID(ctx, item.VideoID), windowID)
	logger := logging.WithContext(ctx, w.logger)

	jobDir := filepath.Join(w.opts.ScratchDir, fmt.Sprintf("%s-%s", item.VideoID, windowID))
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "worker", "scratch", jobDir, err)
	}
	defer os.RemoveAll(jobDir)

	rawPath := filepath.Join(jobDir, filepath.Base(item.RawKey))
	if err := blobstore.DownloadToFile(ctx, w.raw, item.RawKey, rawPath); err != nil {
		return w.fail(ctx, item, videostore.StatusFailedDownload, "download", err, logger)
	}

	rungs := ladder.ForCeiling(item.MaxResolution)
	if len(rungs) == 0 {
		return w.skip(ctx, item, windowID, logger)
	}

	completed := make([]string, 0, len(rungs))
	for _, rung := range rungs {
		outDir := filepath.Join(jobDir, rung.Name)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return services.Wrap(services.ErrStorage, "worker", "scratch", outDir, err)
		}
		err := w.encoder.Transcode(ctx, hlsenc.Request{
			InputPath:      rawPath,
			Start:          item.Start,
			Duration:       item.End - item.Start,
			Rung:           rung,
			SegmentSeconds: w.opts.SegmentSeconds,
			OutputDir:      outDir,
			WindowID:       windowID,
		})
		if err != nil {
			return w.fail(ctx, item, videostore.StatusFailedTranscode, rung.Name, err, logger)
		}
		if err := blobstore.UploadDir(ctx, w.processed, outDir, manifest.RenditionPrefix(item.VideoID, rung.Name)); err != nil {
			return w.fail(ctx, item, videostore.StatusFailedUpload, rung.Name, err, logger)
		}
		completed = append(completed, rung.Name)
		logger.Debug("rendition uploaded", logging.String(logging.FieldRendition, rung.Name))
	}

	if err := w.signal(ctx, item, windowID, completed); err != nil {
		return w.fail(ctx, item, videostore.StatusFailedSignal, "signal", err, logger)
	}

	logger.Info("chunk complete", logging.Int("renditions", len(completed)))
	return nil
}

// skip handles a source too small for any ladder rung. The chunk produces no
// output; whether it still reports a completion event is configurable, since
// counting skips lets short-ladder videos finalize while not counting them
// matches the historical behavior of leaving the video stuck in SKIPPED.
func (w *Worker) skip(ctx context.Context, item job.WorkItem, windowID string, logger *slog.Logger) error {
	logger.Warn("source below ladder floor, skipping chunk",
		logging.Int("max_height", item.MaxResolution))
	if err := w.videos.SetStatus(ctx, item.VideoID, videostore.StatusSkipped); err != nil {
		return err
	}
	if !w.opts.CountSkippedChunks {
		return nil
	}
	if err := w.signal(ctx, item, windowID, nil); err != nil {
		return w.fail(ctx, item, videostore.StatusFailedSignal, "signal", err, logger)
	}
	return nil
}

func (w *Worker) signal(ctx context.Context, item job.WorkItem, windowID string, completed []string) error {
	event := job.CompletionEvent{
		VideoID:            item.VideoID,
		ChunkID:            windowID,
		Sequence:           item.Sequence,
		TotalChunks:        item.TotalChunks,
		CompletedQualities: completed,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return services.Wrap(services.ErrValidation, "worker", "encode", windowID, err)
	}
	return w.completions.Send(ctx, body)
}

// fail marks the video with the stage that gave up and returns an error so
// the work item stays leased for retry. The status write is best effort; the
// retry matters more than the label.
func (w *Worker) fail(ctx context.Context, item job.WorkItem, status videostore.Status, stage string, err error, logger *slog.Logger) error {
	logger.Error("chunk failed",
		logging.String("stage", stage),
		logging.String("status", string(status)),
		logging.Error(err))
	if statusErr := w.videos.SetStatus(ctx, item.VideoID, status); statusErr != nil {
		logger.Warn("record failure status", logging.Error(statusErr))
	}
	return err
}
