package testsupport

import (
	"testing"
	"time"

	"vodsmith/internal/blobstore"
	"vodsmith/internal/config"
	"vodsmith/internal/msgqueue"
	"vodsmith/internal/videostore"
)

// MustOpenVideoStore opens a videostore for tests and registers cleanup.
func MustOpenVideoStore(t testing.TB, cfg *config.Config) *videostore.SQLiteStore {
	t.Helper()

	store, err := videostore.Open(cfg.Paths.DataDir)
	if err != nil {
		t.Fatalf("videostore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenBroker opens a SQLite queue broker for tests and registers cleanup.
func MustOpenBroker(t testing.TB, cfg *config.Config) *msgqueue.SQLiteBroker {
	t.Helper()

	broker, err := msgqueue.OpenSQLiteBroker(cfg.Paths.DataDir)
	if err != nil {
		t.Fatalf("msgqueue.OpenSQLiteBroker: %v", err)
	}
	t.Cleanup(func() {
		broker.Close()
	})
	return broker
}

// Queue returns a handle on a named test queue with the config's lease window.
func Queue(t testing.TB, broker *msgqueue.SQLiteBroker, name string, cfg *config.Config) *msgqueue.SQLiteQueue {
	t.Helper()
	return broker.Queue(name, time.Duration(cfg.Queues.VisibilitySeconds)*time.Second)
}

// MustOpenBucket opens a filesystem-backed blob bucket for tests.
func MustOpenBucket(t testing.TB, cfg *config.Config, bucket string) *blobstore.FSStore {
	t.Helper()

	store, err := blobstore.NewFSStore(cfg.Storage.FSRoot, bucket)
	if err != nil {
		t.Fatalf("blobstore.NewFSStore: %v", err)
	}
	return store
}
