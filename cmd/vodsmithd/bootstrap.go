package main

import (
	"context"
	"fmt"
	"log/slog"

	"vodsmith/internal/blobstore"
	"vodsmith/internal/config"
	"vodsmith/internal/deps"
	"vodsmith/internal/finalizer"
	"vodsmith/internal/logging"
	"vodsmith/internal/media/hlsenc"
	"vodsmith/internal/metrics"
	"vodsmith/internal/msgqueue"
	"vodsmith/internal/pipeline"
	"vodsmith/internal/segmenter"
	"vodsmith/internal/videostore"
	"vodsmith/internal/worker"
)

type dependencies struct {
	Manager *pipeline.Manager
	Metrics *metrics.Set

	queues *msgqueue.Set
	videos *videostore.SQLiteStore
}

func (d *dependencies) Close() {
	if d.queues != nil {
		_ = d.queues.Close()
	}
	if d.videos != nil {
		_ = d.videos.Close()
	}
}

func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	for _, status := range deps.CheckBinaries(deps.Default(cfg)) {
		if !status.Available {
			logger.Warn("external tool unavailable",
				logging.String("tool", status.Name),
				logging.String("detail", status.Detail))
		}
	}

	raw, err := blobstore.OpenBucket(ctx, cfg, cfg.Storage.RawBucket)
	if err != nil {
		return nil, fmt.Errorf("open raw bucket: %w", err)
	}
	processed, err := blobstore.OpenBucket(ctx, cfg, cfg.Storage.ProcessedBucket)
	if err != nil {
		return nil, fmt.Errorf("open processed bucket: %w", err)
	}
	queues, err := msgqueue.OpenFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open queues: %w", err)
	}
	videos, err := videostore.Open(cfg.Paths.DataDir)
	if err != nil {
		_ = queues.Close()
		return nil, fmt.Errorf("open video store: %w", err)
	}

	seg := segmenter.New(raw, queues.Jobs, videos, segmenter.Options{
		WindowSeconds:    cfg.Pipeline.WindowSeconds,
		ProbePrefixBytes: cfg.Pipeline.ProbePrefixBytes,
		SendBatchSize:    cfg.Queues.SendBatchSize,
		FFprobeBin:       cfg.Tools.FFprobeBin,
		ScratchDir:       cfg.Paths.ScratchDir,
	}, logger)
	wrk := worker.New(raw, processed, queues.Completions, videos,
		hlsenc.NewCLI(hlsenc.WithBinary(cfg.Tools.FFmpegBin)), worker.Options{
			ScratchDir:         cfg.Paths.ScratchDir,
			SegmentSeconds:     cfg.Pipeline.SegmentSeconds,
			CountSkippedChunks: cfg.Pipeline.CountSkippedChunks,
		}, logger)
	fin := finalizer.New(processed, videos, finalizer.Options{
		WindowSeconds: cfg.Pipeline.WindowSeconds,
		CDNDomain:     cfg.Storage.CDNDomain,
	}, logger)

	met := metrics.New()
	manager := pipeline.NewManager(cfg, seg, wrk, fin,
		queues.Segments, queues.Jobs, queues.Completions, met, logger)

	return &dependencies{Manager: manager, Metrics: met, queues: queues, videos: videos}, nil
}
