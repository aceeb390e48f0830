package msgqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vodsmith/internal/services"
)

// SQLiteBroker hosts named queues in a single SQLite database. It backs local
// deployments where SQS is not configured.
type SQLiteBroker struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const messagesSchema = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    queue TEXT NOT NULL,
    body BLOB NOT NULL,
    visible_at INTEGER NOT NULL,
    enqueued_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_queue_visible ON messages(queue, visible_at);
`

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// OpenSQLiteBroker initializes or connects to the queue database in dir.
// Pragmas ride the DSN so every pooled connection gets the busy timeout,
// not only the one a plain Exec would touch.
func OpenSQLiteBroker(dir string) (*SQLiteBroker, error) {
	dbPath := filepath.Join(dir, "queues.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec(messagesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init queue schema: %w", err)
	}
	return &SQLiteBroker{db: db, path: dbPath}, nil
}

// Close releases the underlying database handle.
func (b *SQLiteBroker) Close() error {
	return b.db.Close()
}

// Path returns the database file location.
func (b *SQLiteBroker) Path() string {
	return b.path
}

// Queue returns a handle on the named queue with the given lease window.
func (b *SQLiteBroker) Queue(name string, visibility time.Duration) *SQLiteQueue {
	return &SQLiteQueue{broker: b, name: name, visibility: visibility, now: time.Now}
}

// SQLiteQueue is one named queue inside a broker database.
type SQLiteQueue struct {
	broker     *SQLiteBroker
	name       string
	visibility time.Duration
	now        func() time.Time
}

func (q *SQLiteQueue) Send(ctx context.Context, body []byte) error {
	return q.SendBatch(ctx, [][]byte{body})
}

func (q *SQLiteQueue) SendBatch(ctx context.Context, bodies [][]byte) error {
	if len(bodies) == 0 {
		return nil
	}
	now := q.now().Unix()
	err := retryOnBusy(ctx, func() error {
		tx, err := q.broker.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
		for _, body := range bodies {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO messages (queue, body, visible_at, enqueued_at) VALUES (?, ?, ?, ?)`,
				q.name, body, now, now); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "msgqueue", "send", q.name, err)
	}
	return nil
}

// Receive claims up to max visible messages and hides them for the queue's
// visibility window. It polls until wait elapses when the queue is empty.
func (q *SQLiteQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	deadline := q.now().Add(wait)
	for {
		msgs, err := q.receiveOnce(ctx, max)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 || !q.now().Before(deadline) {
			return msgs, nil
		}
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *SQLiteQueue) receiveOnce(ctx context.Context, max int) ([]Message, error) {
	now := q.now()
	leaseUntil := now.Add(q.visibility).Unix()

	var msgs []Message
	err := retryOnBusy(ctx, func() error {
		msgs = msgs[:0]
		tx, err := q.broker.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx,
			`SELECT id, body FROM messages WHERE queue = ? AND visible_at <= ? ORDER BY id LIMIT ?`,
			q.name, now.Unix(), max)
		if err != nil {
			return err
		}
		type claimed struct {
			id   int64
			body []byte
		}
		var batch []claimed
		for rows.Next() {
			var c claimed
			if err := rows.Scan(&c.id, &c.body); err != nil {
				rows.Close()
				return err
			}
			batch = append(batch, c)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		for _, c := range batch {
			if _, err := tx.ExecContext(ctx,
				`UPDATE messages SET visible_at = ? WHERE id = ?`, leaseUntil, c.id); err != nil {
				return err
			}
			msgs = append(msgs, Message{Receipt: strconv.FormatInt(c.id, 10), Body: c.body})
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "msgqueue", "receive", q.name, err)
	}
	return msgs, nil
}

func (q *SQLiteQueue) Delete(ctx context.Context, receipt string) error {
	id, err := strconv.ParseInt(receipt, 10, 64)
	if err != nil {
		return services.Wrap(services.ErrValidation, "msgqueue", "delete", fmt.Sprintf("bad receipt %q", receipt), err)
	}
	err = retryOnBusy(ctx, func() error {
		_, execErr := q.broker.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ? AND queue = ?`, id, q.name)
		return execErr
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "msgqueue", "delete", q.name, err)
	}
	return nil
}

var _ Queue = (*SQLiteQueue)(nil)
