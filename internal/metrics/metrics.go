// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vodsmith/internal/logging"
)

// Set bundles the pipeline's collectors on one registry.
type Set struct {
	registry *prometheus.Registry

	SegmentRequests   prometheus.Counter
	ChunksDispatched  prometheus.Counter
	ChunksProcessed   *prometheus.CounterVec
	ChunkDuration     prometheus.Histogram
	VideosFinalized   *prometheus.CounterVec
	QueueReceiveError prometheus.Counter
	ActiveWorkers     prometheus.Gauge
}

// New builds the collector set on a fresh registry.
func New() *Set {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Set{
		registry: registry,
		SegmentRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "vodsmith_segment_requests_total",
			Help: "Segment requests consumed from the intake queue.",
		}),
		ChunksDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "vodsmith_chunks_dispatched_total",
			Help: "Work items published to the job queue.",
		}),
		ChunksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vodsmith_chunks_processed_total",
			Help: "Chunk outcomes by result.",
		}, []string{"result"}),
		ChunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vodsmith_chunk_duration_seconds",
			Help:    "Wall time spent processing one chunk end to end.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		VideosFinalized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vodsmith_videos_finalized_total",
			Help: "Videos reaching a terminal state, by status.",
		}, []string{"status"}),
		QueueReceiveError: factory.NewCounter(prometheus.CounterOpts{
			Name: "vodsmith_queue_receive_errors_total",
			Help: "Failed queue receive calls across all consumers.",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vodsmith_active_workers",
			Help: "Workers currently processing a chunk.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics endpoint until ctx is cancelled.
func (s *Set) Serve(ctx context.Context, bind string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Handler())
	server := &http.Server{Addr: bind, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.Info("metrics endpoint listening", logging.String("bind", bind))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
