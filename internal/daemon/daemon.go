package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"vodsmith/internal/config"
	"vodsmith/internal/logging"
	"vodsmith/internal/metrics"
	"vodsmith/internal/pipeline"
)

// Daemon runs the pipeline manager and the optional metrics endpoint under a
// single lifecycle, with flock-based locking to prevent multiple instances
// from consuming the same local queues.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Manager
	metrics  *metrics.Set

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, mgr *pipeline.Manager, met *metrics.Set) (*Daemon, error) {
	if cfg == nil || mgr == nil {
		return nil, errors.New("daemon requires config and pipeline manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "vodsmithd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		pipeline: mgr,
		metrics:  met,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// LockPath returns the daemon's lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Start acquires the instance lock and launches background processing.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vodsmith daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pipeline.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start pipeline: %w", err)
	}
	d.cancel = cancel

	if d.metrics != nil && d.cfg.Metrics.Enabled {
		go func() {
			if err := d.metrics.Serve(runCtx, d.cfg.Metrics.Bind, d.logger); err != nil {
				d.logger.Warn("metrics endpoint stopped", logging.Error(err))
			}
		}()
	}

	d.running.Store(true)
	d.logger.Info("vodsmith daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vodsmith daemon stopped")
}
