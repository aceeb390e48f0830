package videostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vodsmith/internal/services"
)

// SQLiteStore persists video records in SQLite. Completed renditions live in
// a side table keyed (video_id, rendition) so recording one is an INSERT OR
// IGNORE rather than a read-modify-write of a set; combined with the counter
// increment this makes RecordCompletion commutative across workers.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const videosSchema = `
CREATE TABLE IF NOT EXISTS videos (
    video_id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    raw_key TEXT NOT NULL,
    duration_seconds REAL NOT NULL DEFAULT 0,
    total_chunks INTEGER NOT NULL,
    chunks_completed INTEGER NOT NULL DEFAULT 0,
    playback_url TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS video_renditions (
    video_id TEXT NOT NULL,
    rendition TEXT NOT NULL,
    PRIMARY KEY (video_id, rendition)
);
`

// Open initializes or connects to the video database in dir. Pragmas ride
// the DSN so every pooled connection gets the busy timeout, not only the one
// a plain Exec would touch.
func Open(dir string) (*SQLiteStore, error) {
	dbPath := filepath.Join(dir, "videos.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec(videosSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init video schema: %w", err)
	}
	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Init records a video entering the pipeline. Re-running it for the same
// video resets the chunk plan, which keeps segment request redelivery safe.
func (s *SQLiteStore) Init(ctx context.Context, videoID, rawKey string, durationSeconds float64, totalChunks int) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO videos (video_id, status, raw_key, duration_seconds, total_chunks, chunks_completed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 0, ?, ?)
ON CONFLICT(video_id) DO UPDATE SET
    status = excluded.status,
    raw_key = excluded.raw_key,
    duration_seconds = excluded.duration_seconds,
    total_chunks = excluded.total_chunks,
    updated_at = excluded.updated_at`,
		videoID, string(StatusProcessing), rawKey, durationSeconds, totalChunks, now, now)
	if err != nil {
		return services.Wrap(services.ErrStorage, "videostore", "init", videoID, err)
	}
	return nil
}

// RecordCompletion counts one chunk completion and unions the chunk's
// renditions into the video's set, returning the state seen right after the
// update. The increment and the set union both run inside one immediate
// transaction, so two workers finishing concurrently can never observe or
// produce a lost count.
func (s *SQLiteStore) RecordCompletion(ctx context.Context, videoID string, renditions []string) (Progress, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
	}
	defer tx.Rollback()

	for _, rendition := range renditions {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO video_renditions (video_id, rendition) VALUES (?, ?)`,
			videoID, rendition); err != nil {
			return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
		}
	}

	res, err := tx.ExecContext(ctx, `
UPDATE videos SET
    chunks_completed = chunks_completed + 1,
    status = ?,
    updated_at = ?
WHERE video_id = ?`,
		string(StatusProcessing), time.Now().Unix(), videoID)
	if err != nil {
		return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
	}
	if affected == 0 {
		return Progress{}, services.Wrap(services.ErrNotFound, "videostore", "record_completion", videoID, nil)
	}

	var progress Progress
	if err := tx.QueryRowContext(ctx,
		`SELECT chunks_completed, total_chunks FROM videos WHERE video_id = ?`, videoID).
		Scan(&progress.Completed, &progress.Total); err != nil {
		return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT rendition FROM video_renditions WHERE video_id = ? ORDER BY rendition`, videoID)
	if err != nil {
		return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
	}
	for rows.Next() {
		var rendition string
		if err := rows.Scan(&rendition); err != nil {
			rows.Close()
			return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
		}
		progress.Renditions = append(progress.Renditions, rendition)
	}
	if err := rows.Close(); err != nil {
		return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
	}

	if err := tx.Commit(); err != nil {
		return Progress{}, services.Wrap(services.ErrStorage, "videostore", "record_completion", videoID, err)
	}
	return progress, nil
}

// SetStatus marks the video with a terminal or intermediate status.
func (s *SQLiteStore) SetStatus(ctx context.Context, videoID string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status = ?, updated_at = ? WHERE video_id = ?`,
		string(status), time.Now().Unix(), videoID)
	if err != nil {
		return services.Wrap(services.ErrStorage, "videostore", "set_status", videoID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "videostore", "set_status", videoID, nil)
	}
	return nil
}

// SetReady marks the video playable at the given URL. It is a pure overwrite
// so a redelivered finalize lands on the same state.
func (s *SQLiteStore) SetReady(ctx context.Context, videoID, playbackURL string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status = ?, playback_url = ?, updated_at = ? WHERE video_id = ?`,
		string(StatusReady), playbackURL, time.Now().Unix(), videoID)
	if err != nil {
		return services.Wrap(services.ErrStorage, "videostore", "set_ready", videoID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "videostore", "set_ready", videoID, nil)
	}
	return nil
}

// Get fetches one video record.
func (s *SQLiteStore) Get(ctx context.Context, videoID string) (Video, error) {
	video, err := s.scanVideo(ctx, s.db.QueryRowContext(ctx, `
SELECT video_id, status, raw_key, duration_seconds, total_chunks, chunks_completed, playback_url, created_at, updated_at
FROM videos WHERE video_id = ?`, videoID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Video{}, services.Wrap(services.ErrNotFound, "videostore", "get", videoID, nil)
		}
		return Video{}, services.Wrap(services.ErrStorage, "videostore", "get", videoID, err)
	}
	if err := s.loadRenditions(ctx, &video); err != nil {
		return Video{}, services.Wrap(services.ErrStorage, "videostore", "get", videoID, err)
	}
	return video, nil
}

// List returns every tracked video, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT video_id, status, raw_key, duration_seconds, total_chunks, chunks_completed, playback_url, created_at, updated_at
FROM videos ORDER BY created_at DESC, video_id`)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "videostore", "list", "", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		video, err := s.scanVideo(ctx, rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "videostore", "list", "", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStorage, "videostore", "list", "", err)
	}
	for i := range videos {
		if err := s.loadRenditions(ctx, &videos[i]); err != nil {
			return nil, services.Wrap(services.ErrStorage, "videostore", "list", videos[i].ID, err)
		}
	}
	return videos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanVideo(_ context.Context, row rowScanner) (Video, error) {
	var (
		video              Video
		status             string
		createdAt, updated int64
	)
	if err := row.Scan(&video.ID, &status, &video.RawKey, &video.DurationSeconds,
		&video.TotalChunks, &video.ChunksCompleted, &video.PlaybackURL, &createdAt, &updated); err != nil {
		return Video{}, err
	}
	video.Status = Status(status)
	video.CreatedAt = time.Unix(createdAt, 0).UTC()
	video.UpdatedAt = time.Unix(updated, 0).UTC()
	return video, nil
}

func (s *SQLiteStore) loadRenditions(ctx context.Context, video *Video) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rendition FROM video_renditions WHERE video_id = ? ORDER BY rendition`, video.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rendition string
		if err := rows.Scan(&rendition); err != nil {
			return err
		}
		video.Renditions = append(video.Renditions, rendition)
	}
	return rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
