package finalizer

import (
	"bytes"
	"context"
	"log/slog"

	"vodsmith/internal/blobstore"
	"vodsmith/internal/job"
	"vodsmith/internal/logging"
	"vodsmith/internal/manifest"
	"vodsmith/internal/services"
	"vodsmith/internal/videostore"
)

// Options carries the finalizer's tunables.
type Options struct {
	WindowSeconds float64
	CDNDomain     string
}

// Finalizer tallies chunk completions and assembles the playable manifests
// once the last chunk reports in.
type Finalizer struct {
	processed blobstore.Store
	videos    videostore.Store
	opts      Options
	logger    *slog.Logger
}

// New builds a finalizer. A nil logger disables logging.
func New(processed blobstore.Store, videos videostore.Store, opts Options, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		processed: processed,
		videos:    videos,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "finalizer"),
	}
}

// Process records one completion event and reports the terminal status it
// applied, if any. When the event is the last one for its video, it also
// stitches the rendition playlists and publishes the master manifest.
// Assembly is a pure overwrite of fixed keys, so a redelivered final event
// rebuilds identical objects and lands on the same READY state.
func (f *Finalizer) Process(ctx context.Context, event job.CompletionEvent) (videostore.Status, error) {
	ctx = services.WithChunk(services.WithVideoID(ctx, event.VideoID), event.ChunkID)
	logger := logging.WithContext(ctx, f.logger)

	progress, err := f.videos.RecordCompletion(ctx, event.VideoID, event.CompletedQualities)
	if err != nil {
		return "", err
	}
	logger.Info("chunk completion recorded",
		logging.Int("completed", progress.Completed),
		logging.Int("total", progress.Total))

	if !progress.Complete() {
		return "", nil
	}
	return f.finalize(ctx, event.VideoID, progress, logger)
}

func (f *Finalizer) finalize(ctx context.Context, videoID string, progress videostore.Progress, logger *slog.Logger) (videostore.Status, error) {
	if len(progress.Renditions) == 0 {
		logger.Warn("all chunks reported without renditions, nothing to assemble")
		if err := f.videos.SetStatus(ctx, videoID, videostore.StatusSkipped); err != nil {
			return "", err
		}
		return videostore.StatusSkipped, nil
	}

	video, err := f.videos.Get(ctx, videoID)
	if err != nil {
		return "", err
	}
	// The window plan is recomputed from the recorded duration rather than
	// persisted; the same arithmetic that produced the work items yields the
	// exact chunk manifest keys the workers uploaded.
	windows := job.Windows(video.DurationSeconds, f.opts.WindowSeconds)

	for _, rendition := range progress.Renditions {
		chunks := make([]string, 0, len(windows))
		for _, window := range windows {
			key := manifest.ChunkManifestKey(videoID, rendition, job.WindowID(window.Start, window.End))
			data, err := blobstore.ReadAll(ctx, f.processed, key)
			if err != nil {
				return "", services.Wrap(services.ErrStorage, "finalizer", "stitch", key, err)
			}
			chunks = append(chunks, string(data))
		}
		body := manifest.StitchRendition(rendition, chunks)
		if err := f.processed.Put(ctx, manifest.SequentialKey(videoID, rendition),
			bytes.NewReader(body), manifest.ContentType); err != nil {
			return "", err
		}
	}

	master := manifest.Master(progress.Renditions)
	masterKey := manifest.MasterKey(videoID)
	if err := f.processed.Put(ctx, masterKey, bytes.NewReader(master), manifest.ContentType); err != nil {
		return "", err
	}

	playbackURL := manifest.PublicURL(f.opts.CDNDomain, masterKey)
	if err := f.videos.SetReady(ctx, videoID, playbackURL); err != nil {
		return "", err
	}
	logger.Info("video finalized",
		logging.Int("renditions", len(progress.Renditions)),
		logging.String("playback_url", playbackURL))
	return videostore.StatusReady, nil
}
