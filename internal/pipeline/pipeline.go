package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vodsmith/internal/config"
	"vodsmith/internal/finalizer"
	"vodsmith/internal/job"
	"vodsmith/internal/logging"
	"vodsmith/internal/metrics"
	"vodsmith/internal/msgqueue"
	"vodsmith/internal/segmenter"
	"vodsmith/internal/worker"
)

// receiveErrorBackoff spaces out retries when a queue backend is unhealthy.
const receiveErrorBackoff = 5 * time.Second

// Manager coordinates the pipeline's consumer loops: one segmenter lane, a
// pool of worker lanes, and one finalizer lane, each polling its queue.
type Manager struct {
	cfg *config.Config

	segmenter *segmenter.Segmenter
	worker    *worker.Worker
	finalizer *finalizer.Finalizer

	segments    msgqueue.Queue
	jobs        msgqueue.Queue
	completions msgqueue.Queue

	metrics *metrics.Set
	logger  *slog.Logger

	pollInterval time.Duration
	receiveWait  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a pipeline manager.
func NewManager(
	cfg *config.Config,
	seg *segmenter.Segmenter,
	wrk *worker.Worker,
	fin *finalizer.Finalizer,
	segments, jobs, completions msgqueue.Queue,
	met *metrics.Set,
	logger *slog.Logger,
) *Manager {
	if met == nil {
		met = metrics.New()
	}
	return &Manager{
		cfg:          cfg,
		segmenter:    seg,
		worker:       wrk,
		finalizer:    fin,
		segments:     segments,
		jobs:         jobs,
		completions:  completions,
		metrics:      met,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		pollInterval: time.Duration(cfg.Pipeline.PollIntervalMillis) * time.Millisecond,
		receiveWait:  time.Duration(cfg.Queues.ReceiveWaitSeconds) * time.Second,
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("pipeline already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	lanes := 2 + m.cfg.Pipeline.WorkerCount
	m.wg.Add(lanes)
	go m.runSegmentLane(runCtx)
	for i := 0; i < m.cfg.Pipeline.WorkerCount; i++ {
		go m.runWorkerLane(runCtx, i)
	}
	go m.runFinalizerLane(runCtx)

	m.logger.Info("pipeline started", logging.Int("workers", m.cfg.Pipeline.WorkerCount))
	return nil
}

// Stop terminates background processing and waits for in-flight work.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("pipeline stopped")
}

func (m *Manager) runSegmentLane(ctx context.Context) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String("lane", "segmenter"))

	m.consume(ctx, m.segments, logger, func(ctx context.Context, body []byte) error {
		var req job.SegmentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return fmt.Errorf("decode segment request: %w", err)
		}
		dispatched, err := m.segmenter.Process(ctx, req)
		if err != nil {
			return err
		}
		m.metrics.SegmentRequests.Inc()
		m.metrics.ChunksDispatched.Add(float64(dispatched))
		return nil
	})
}

func (m *Manager) runWorkerLane(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String("lane", fmt.Sprintf("worker-%d", id)))

	m.consume(ctx, m.jobs, logger, func(ctx context.Context, body []byte) error {
		var item job.WorkItem
		if err := json.Unmarshal(body, &item); err != nil {
			return fmt.Errorf("decode work item: %w", err)
		}
		m.metrics.ActiveWorkers.Inc()
		start := time.Now()
		err := m.worker.ProcessItem(ctx, item)
		m.metrics.ChunkDuration.Observe(time.Since(start).Seconds())
		m.metrics.ActiveWorkers.Dec()
		if err != nil {
			m.metrics.ChunksProcessed.WithLabelValues("error").Inc()
			return err
		}
		m.metrics.ChunksProcessed.WithLabelValues("ok").Inc()
		return nil
	})
}

func (m *Manager) runFinalizerLane(ctx context.Context) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String("lane", "finalizer"))

	m.consume(ctx, m.completions, logger, func(ctx context.Context, body []byte) error {
		var event job.CompletionEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("decode completion event: %w", err)
		}
		status, err := m.finalizer.Process(ctx, event)
		if err != nil {
			return err
		}
		if status != "" {
			m.metrics.VideosFinalized.WithLabelValues(string(status)).Inc()
		}
		return nil
	})
}

// consume polls one queue and feeds messages to handle. A message is deleted
// only after handle returns nil; failures leave it leased so the queue
// redelivers it after the visibility window.
func (m *Manager) consume(ctx context.Context, queue msgqueue.Queue, logger *slog.Logger, handle func(context.Context, []byte) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := queue.Receive(ctx, 1, m.receiveWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.metrics.QueueReceiveError.Inc()
			logger.Warn("queue receive failed", logging.Error(err))
			m.sleep(ctx, receiveErrorBackoff)
			continue
		}
		if len(msgs) == 0 {
			m.sleep(ctx, m.pollInterval)
			continue
		}

		for _, msg := range msgs {
			if err := handle(ctx, msg.Body); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Error("message processing failed, leaving leased for retry", logging.Error(err))
				continue
			}
			if err := queue.Delete(ctx, msg.Receipt); err != nil {
				logger.Warn("acknowledge message failed, it will be redelivered", logging.Error(err))
			}
		}
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Millisecond
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
