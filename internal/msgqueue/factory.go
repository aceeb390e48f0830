package msgqueue

import (
	"context"
	"fmt"
	"time"

	"vodsmith/internal/config"
)

// Set bundles the pipeline's three queues behind one open/close pair.
type Set struct {
	Segments    Queue
	Jobs        Queue
	Completions Queue

	broker *SQLiteBroker
}

// OpenFromConfig connects the configured queue backend.
func OpenFromConfig(ctx context.Context, cfg *config.Config) (*Set, error) {
	visibility := time.Duration(cfg.Queues.VisibilitySeconds) * time.Second

	switch cfg.Queues.Backend {
	case "sqlite":
		broker, err := OpenSQLiteBroker(cfg.Paths.DataDir)
		if err != nil {
			return nil, err
		}
		return &Set{
			Segments:    broker.Queue(cfg.Queues.SegmentQueueURL, visibility),
			Jobs:        broker.Queue(cfg.Queues.JobQueueURL, visibility),
			Completions: broker.Queue(cfg.Queues.CompletionQueueURL, visibility),
			broker:      broker,
		}, nil
	case "sqs":
		segments, err := NewSQSQueue(ctx, cfg.Storage.Region, cfg.Queues.SegmentQueueURL)
		if err != nil {
			return nil, err
		}
		jobs, err := NewSQSQueue(ctx, cfg.Storage.Region, cfg.Queues.JobQueueURL)
		if err != nil {
			return nil, err
		}
		completions, err := NewSQSQueue(ctx, cfg.Storage.Region, cfg.Queues.CompletionQueueURL)
		if err != nil {
			return nil, err
		}
		return &Set{Segments: segments, Jobs: jobs, Completions: completions}, nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Queues.Backend)
	}
}

// Close releases backend resources, if any.
func (s *Set) Close() error {
	if s.broker != nil {
		return s.broker.Close()
	}
	return nil
}
