package videostore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"vodsmith/internal/services"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInitAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Init(ctx, "vid-1", "raw/vid-1.mp4", 150, 3); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	video, err := store.Get(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.Status != StatusProcessing {
		t.Fatalf("status = %s, want %s", video.Status, StatusProcessing)
	}
	if video.TotalChunks != 3 || video.ChunksCompleted != 0 {
		t.Fatalf("progress = %d/%d, want 0/3", video.ChunksCompleted, video.TotalChunks)
	}
	if video.RawKey != "raw/vid-1.mp4" {
		t.Fatalf("raw key = %q", video.RawKey)
	}
	if video.DurationSeconds != 150 {
		t.Fatalf("duration = %v, want 150", video.DurationSeconds)
	}
}

func TestGetMissingVideo(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "absent")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Get(absent) error = %v, want ErrNotFound", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Init(ctx, "vid-1", "raw/vid-1.mp4", 150, 3); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := store.Init(ctx, "vid-1", "raw/vid-1.mp4", 150, 3); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}

	video, err := store.Get(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.TotalChunks != 3 {
		t.Fatalf("total chunks = %d, want 3", video.TotalChunks)
	}
}

func TestRecordCompletionAccumulates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Init(ctx, "vid-1", "raw/vid-1.mp4", 120, 2); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	first, err := store.RecordCompletion(ctx, "vid-1", []string{"720p", "480p", "360p"})
	if err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}
	if first.Completed != 1 || first.Complete() {
		t.Fatalf("first progress = %+v", first)
	}

	second, err := store.RecordCompletion(ctx, "vid-1", []string{"720p", "480p", "360p"})
	if err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}
	if !second.Complete() {
		t.Fatalf("second progress = %+v, want complete", second)
	}
	want := []string{"360p", "480p", "720p"}
	if len(second.Renditions) != len(want) {
		t.Fatalf("renditions = %v, want %v", second.Renditions, want)
	}
	for i := range want {
		if second.Renditions[i] != want[i] {
			t.Fatalf("renditions = %v, want %v", second.Renditions, want)
		}
	}
}

func TestRecordCompletionEmptyRenditions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Init(ctx, "vid-1", "raw/vid-1.mp4", 60, 1); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	progress, err := store.RecordCompletion(ctx, "vid-1", nil)
	if err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}
	if !progress.Complete() {
		t.Fatalf("progress = %+v, want complete", progress)
	}
	if len(progress.Renditions) != 0 {
		t.Fatalf("renditions = %v, want empty", progress.Renditions)
	}
}

func TestRecordCompletionUnknownVideo(t *testing.T) {
	store := newTestStore(t)
	_, err := store.RecordCompletion(context.Background(), "absent", []string{"720p"})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("RecordCompletion(absent) error = %v, want ErrNotFound", err)
	}
}

func TestRecordCompletionConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const chunks = 16
	if err := store.Init(ctx, "vid-1", "raw/vid-1.mp4", 60, chunks); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, chunks)
	for i := 0; i < chunks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RecordCompletion(ctx, "vid-1", []string{"720p", "480p"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("RecordCompletion() error = %v", err)
		}
	}

	video, err := store.Get(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.ChunksCompleted != chunks {
		t.Fatalf("chunks completed = %d, want %d", video.ChunksCompleted, chunks)
	}
	if len(video.Renditions) != 2 {
		t.Fatalf("renditions = %v, want two", video.Renditions)
	}
}

func TestSetReadyOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Init(ctx, "vid-1", "raw/vid-1.mp4", 60, 1); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.SetReady(ctx, "vid-1", "https://cdn.example.com/processed/vid-1/master.m3u8"); err != nil {
			t.Fatalf("SetReady() error = %v", err)
		}
	}

	video, err := store.Get(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.Status != StatusReady {
		t.Fatalf("status = %s, want %s", video.Status, StatusReady)
	}
	if video.PlaybackURL != "https://cdn.example.com/processed/vid-1/master.m3u8" {
		t.Fatalf("playback url = %q", video.PlaybackURL)
	}
}

func TestSetStatusTerminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Init(ctx, "vid-1", "raw/vid-1.mp4", 60, 1); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := store.SetStatus(ctx, "vid-1", StatusFailedTranscode); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	video, err := store.Get(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.Status != StatusFailedTranscode || !video.Status.Terminal() {
		t.Fatalf("status = %s, want terminal FAILED_TRANSCODE", video.Status)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"vid-a", "vid-b"} {
		if err := store.Init(ctx, id, "raw/"+id+".mp4", 60, 1); err != nil {
			t.Fatalf("Init(%s) error = %v", id, err)
		}
	}
	videos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("List() returned %d videos, want 2", len(videos))
	}
}
