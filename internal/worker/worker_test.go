package worker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vodsmith/internal/blobstore"
	"vodsmith/internal/config"
	"vodsmith/internal/job"
	"vodsmith/internal/media/hlsenc"
	"vodsmith/internal/msgqueue"
	"vodsmith/internal/testsupport"
	"vodsmith/internal/videostore"
)

type fixture struct {
	cfg         *config.Config
	raw         *blobstore.FSStore
	processed   *blobstore.FSStore
	completions *msgqueue.SQLiteQueue
	videos      *videostore.SQLiteStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	broker := testsupport.MustOpenBroker(t, cfg)
	return &fixture{
		cfg:         cfg,
		raw:         testsupport.MustOpenBucket(t, cfg, cfg.Storage.RawBucket),
		processed:   testsupport.MustOpenBucket(t, cfg, cfg.Storage.ProcessedBucket),
		completions: testsupport.Queue(t, broker, cfg.Queues.CompletionQueueURL, cfg),
		videos:      testsupport.MustOpenVideoStore(t, cfg),
	}
}

func (f *fixture) newWorker(t *testing.T, encoder hlsenc.Client, countSkipped bool) *Worker {
	t.Helper()
	return New(f.raw, f.processed, f.completions, f.videos, encoder, Options{
		ScratchDir:         f.cfg.Paths.ScratchDir,
		SegmentSeconds:     f.cfg.Pipeline.SegmentSeconds,
		CountSkippedChunks: countSkipped,
	}, nil)
}

func (f *fixture) seed(t *testing.T, videoID string, totalChunks int) {
	t.Helper()
	ctx := context.Background()
	if err := f.raw.Put(ctx, "raw/"+videoID+".mp4", strings.NewReader("raw-bytes"), "application/octet-stream"); err != nil {
		t.Fatalf("seed raw object: %v", err)
	}
	if err := f.videos.Init(ctx, videoID, "raw/"+videoID+".mp4", 120, totalChunks); err != nil {
		t.Fatalf("seed video record: %v", err)
	}
}

func workItem(videoID string, maxHeight int) job.WorkItem {
	return job.WorkItem{
		VideoID:       videoID,
		RawBucket:     "vodsmith-raw",
		RawKey:        "raw/" + videoID + ".mp4",
		Start:         0,
		End:           60,
		Sequence:      1,
		TotalChunks:   2,
		MaxResolution: maxHeight,
	}
}

func TestProcessItemHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "vid-1", 2)

	binDir := filepath.Join(testsupport.BaseDir(f.cfg), "bin")
	encoder := hlsenc.NewCLI(hlsenc.WithBinary(testsupport.StubFFmpeg(t, binDir)))
	w := f.newWorker(t, encoder, false)

	if err := w.ProcessItem(ctx, workItem("vid-1", 480)); err != nil {
		t.Fatalf("ProcessItem() error = %v", err)
	}

	for _, rendition := range []string{"480p", "360p"} {
		keys, err := f.processed.List(ctx, "processed/vid-1/"+rendition+"/")
		if err != nil {
			t.Fatalf("List(%s) error = %v", rendition, err)
		}
		var haveManifest, haveSegment bool
		for _, key := range keys {
			if strings.HasSuffix(key, "chunk_0000-0060.m3u8") {
				haveManifest = true
			}
			if strings.HasSuffix(key, ".ts") {
				haveSegment = true
			}
		}
		if !haveManifest || !haveSegment {
			t.Fatalf("rendition %s missing outputs: %v", rendition, keys)
		}
	}

	msgs, err := f.completions.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("completion events = %d, want 1", len(msgs))
	}
	var event job.CompletionEvent
	if err := json.Unmarshal(msgs[0].Body, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.VideoID != "vid-1" || event.ChunkID != "0000-0060" {
		t.Fatalf("event identity = %+v", event)
	}
	if event.TotalChunks != 2 || event.Sequence != 1 {
		t.Fatalf("event sequencing = %+v", event)
	}
	want := []string{"480p", "360p"}
	if len(event.CompletedQualities) != len(want) {
		t.Fatalf("completed qualities = %v, want %v", event.CompletedQualities, want)
	}
	for i := range want {
		if event.CompletedQualities[i] != want[i] {
			t.Fatalf("completed qualities = %v, want %v", event.CompletedQualities, want)
		}
	}

	entries, err := os.ReadDir(f.cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "vid-1-") {
			t.Fatalf("scratch dir not cleaned: %s", entry.Name())
		}
	}
}

func TestProcessItemSkipsBelowLadderFloor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "vid-low", 1)

	binDir := filepath.Join(testsupport.BaseDir(f.cfg), "bin")
	encoder := hlsenc.NewCLI(hlsenc.WithBinary(testsupport.StubFFmpeg(t, binDir)))
	w := f.newWorker(t, encoder, false)

	if err := w.ProcessItem(ctx, workItem("vid-low", 240)); err != nil {
		t.Fatalf("ProcessItem() error = %v", err)
	}

	video, err := f.videos.Get(ctx, "vid-low")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.Status != videostore.StatusSkipped {
		t.Fatalf("status = %s, want SKIPPED", video.Status)
	}

	msgs, err := f.completions.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("skipped chunk emitted %d events, want 0", len(msgs))
	}
}

func TestProcessItemCountsSkippedChunksWhenConfigured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "vid-low", 1)

	binDir := filepath.Join(testsupport.BaseDir(f.cfg), "bin")
	encoder := hlsenc.NewCLI(hlsenc.WithBinary(testsupport.StubFFmpeg(t, binDir)))
	w := f.newWorker(t, encoder, true)

	if err := w.ProcessItem(ctx, workItem("vid-low", 240)); err != nil {
		t.Fatalf("ProcessItem() error = %v", err)
	}

	msgs, err := f.completions.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("completion events = %d, want 1", len(msgs))
	}
	var event job.CompletionEvent
	if err := json.Unmarshal(msgs[0].Body, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if len(event.CompletedQualities) != 0 {
		t.Fatalf("skipped event qualities = %v, want none", event.CompletedQualities)
	}
}

func TestProcessItemTranscodeFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "vid-1", 1)

	binDir := filepath.Join(testsupport.BaseDir(f.cfg), "bin")
	encoder := hlsenc.NewCLI(hlsenc.WithBinary(testsupport.StubFFmpegFailing(t, binDir)))
	w := f.newWorker(t, encoder, false)

	if err := w.ProcessItem(ctx, workItem("vid-1", 720)); err == nil {
		t.Fatal("ProcessItem() succeeded with failing encoder")
	}

	video, err := f.videos.Get(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.Status != videostore.StatusFailedTranscode {
		t.Fatalf("status = %s, want FAILED_TRANSCODE", video.Status)
	}
	msgs, err := f.completions.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("failed chunk emitted %d events", len(msgs))
	}
}

func TestProcessItemDownloadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.videos.Init(ctx, "vid-missing", "raw/vid-missing.mp4", 60, 1); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	binDir := filepath.Join(testsupport.BaseDir(f.cfg), "bin")
	encoder := hlsenc.NewCLI(hlsenc.WithBinary(testsupport.StubFFmpeg(t, binDir)))
	w := f.newWorker(t, encoder, false)

	if err := w.ProcessItem(ctx, workItem("vid-missing", 720)); err == nil {
		t.Fatal("ProcessItem() succeeded with missing raw object")
	}

	video, err := f.videos.Get(ctx, "vid-missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.Status != videostore.StatusFailedDownload {
		t.Fatalf("status = %s, want FAILED_DOWNLOAD", video.Status)
	}
}
