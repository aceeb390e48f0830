package msgqueue

import (
	"context"
	"testing"
	"time"
)

func newTestQueue(t *testing.T, visibility time.Duration) *SQLiteQueue {
	t.Helper()
	broker, err := OpenSQLiteBroker(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLiteBroker() error = %v", err)
	}
	t.Cleanup(func() { broker.Close() })
	return broker.Queue("transcode-jobs", visibility)
}

func TestSQLiteQueueSendReceiveDelete(t *testing.T) {
	q := newTestQueue(t, time.Minute)
	ctx := context.Background()

	if err := q.Send(ctx, []byte(`{"VideoID":"vid"}`)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msgs, err := q.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Receive() returned %d messages, want 1", len(msgs))
	}
	if string(msgs[0].Body) != `{"VideoID":"vid"}` {
		t.Fatalf("body = %q", msgs[0].Body)
	}

	if err := q.Delete(ctx, msgs[0].Receipt); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	again, err := q.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Receive() after delete error = %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("deleted message redelivered: %v", again)
	}
}

func TestSQLiteQueueLeaseHidesMessage(t *testing.T) {
	q := newTestQueue(t, time.Hour)
	ctx := context.Background()

	if err := q.Send(ctx, []byte("payload")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	first, err := q.Receive(ctx, 1, 0)
	if err != nil || len(first) != 1 {
		t.Fatalf("first Receive() = %v, %v", first, err)
	}

	second, err := q.Receive(ctx, 1, 0)
	if err != nil {
		t.Fatalf("second Receive() error = %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("leased message visible again: %v", second)
	}
}

func TestSQLiteQueueRedeliversAfterLeaseExpiry(t *testing.T) {
	q := newTestQueue(t, time.Minute)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)
	q.now = func() time.Time { return base }

	if err := q.Send(ctx, []byte("payload")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	first, err := q.Receive(ctx, 1, 0)
	if err != nil || len(first) != 1 {
		t.Fatalf("first Receive() = %v, %v", first, err)
	}

	q.now = func() time.Time { return base.Add(2 * time.Minute) }
	second, err := q.Receive(ctx, 1, 0)
	if err != nil {
		t.Fatalf("Receive() after expiry error = %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expired lease not redelivered")
	}
	if string(second[0].Body) != "payload" {
		t.Fatalf("redelivered body = %q", second[0].Body)
	}
}

func TestSQLiteQueueSendBatchPreservesOrder(t *testing.T) {
	q := newTestQueue(t, time.Minute)
	ctx := context.Background()

	bodies := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	if err := q.SendBatch(ctx, bodies); err != nil {
		t.Fatalf("SendBatch() error = %v", err)
	}

	msgs, err := q.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Receive() returned %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if string(msgs[i].Body) != want {
			t.Fatalf("msgs[%d] = %q, want %q", i, msgs[i].Body, want)
		}
	}
}

func TestSQLiteQueuesAreIsolated(t *testing.T) {
	broker, err := OpenSQLiteBroker(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLiteBroker() error = %v", err)
	}
	defer broker.Close()
	ctx := context.Background()

	jobs := broker.Queue("transcode-jobs", time.Minute)
	completions := broker.Queue("chunk-completions", time.Minute)

	if err := jobs.Send(ctx, []byte("job")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	msgs, err := completions.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("message leaked across queues: %v", msgs)
	}
}

func TestSQLiteQueueDeleteBadReceipt(t *testing.T) {
	q := newTestQueue(t, time.Minute)
	if err := q.Delete(context.Background(), "not-a-number"); err == nil {
		t.Fatal("Delete() with bad receipt succeeded")
	}
}

func TestSQLiteQueueConcurrentConsumers(t *testing.T) {
	q := newTestQueue(t, time.Hour)
	ctx := context.Background()

	const total = 40
	for i := 0; i < total; i++ {
		if err := q.Send(ctx, []byte{byte(i)}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	const consumers = 8
	errs := make(chan error, consumers)
	counts := make(chan int, consumers)
	for i := 0; i < consumers; i++ {
		go func() {
			consumed := 0
			for {
				msgs, err := q.Receive(ctx, 1, 0)
				if err != nil {
					errs <- err
					counts <- consumed
					return
				}
				if len(msgs) == 0 {
					errs <- nil
					counts <- consumed
					return
				}
				if err := q.Delete(ctx, msgs[0].Receipt); err != nil {
					errs <- err
					counts <- consumed
					return
				}
				consumed++
			}
		}()
	}

	seen := 0
	for i := 0; i < consumers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("consumer error = %v", err)
		}
		seen += <-counts
	}
	if seen != total {
		t.Fatalf("consumed %d messages, want %d", seen, total)
	}

	left, err := q.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatalf("final Receive() error = %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("queue not drained: %d messages left", len(left))
	}
}
