package msgqueue

import (
	"context"
	"time"
)

// Message is a leased delivery. Receipt identifies the lease and must be
// passed to Delete once the message's effects are durable.
type Message struct {
	Receipt string
	Body    []byte
}

// Queue delivers messages at least once. A received message stays invisible
// for the queue's visibility window; if it is not deleted before the window
// lapses it is redelivered, so consumers must be idempotent.
type Queue interface {
	// Send enqueues a single message body.
	Send(ctx context.Context, body []byte) error
	// SendBatch enqueues several bodies, splitting into transport-sized
	// batches as needed.
	SendBatch(ctx context.Context, bodies [][]byte) error
	// Receive leases up to max messages, waiting up to wait for at least one.
	Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error)
	// Delete acknowledges a leased message so it is never redelivered.
	Delete(ctx context.Context, receipt string) error
}
