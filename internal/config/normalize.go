package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeQueues()
	c.normalizePipeline()
	c.normalizeTools()
	c.normalizeLogging()
	c.normalizeMetrics()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if c.Storage.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok {
			c.Storage.Region = strings.TrimSpace(value)
		}
	}
	c.Storage.RawBucket = strings.TrimSpace(c.Storage.RawBucket)
	c.Storage.ProcessedBucket = strings.TrimSpace(c.Storage.ProcessedBucket)
	c.Storage.CDNDomain = strings.TrimSpace(c.Storage.CDNDomain)

	if strings.TrimSpace(c.Storage.FSRoot) == "" {
		c.Storage.FSRoot = defaultFSRoot
	}
	var err error
	if c.Storage.FSRoot, err = expandPath(c.Storage.FSRoot); err != nil {
		return fmt.Errorf("storage.fs_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeQueues() {
	c.Queues.Backend = strings.ToLower(strings.TrimSpace(c.Queues.Backend))
	if c.Queues.Backend == "" {
		c.Queues.Backend = defaultQueueBackend
	}
	c.Queues.SegmentQueueURL = strings.TrimSpace(c.Queues.SegmentQueueURL)
	c.Queues.JobQueueURL = strings.TrimSpace(c.Queues.JobQueueURL)
	c.Queues.CompletionQueueURL = strings.TrimSpace(c.Queues.CompletionQueueURL)
	if c.Queues.VisibilitySeconds <= 0 {
		c.Queues.VisibilitySeconds = defaultVisibilitySeconds
	}
	if c.Queues.ReceiveWaitSeconds < 0 {
		c.Queues.ReceiveWaitSeconds = 0
	}
	if c.Queues.SendBatchSize <= 0 {
		c.Queues.SendBatchSize = defaultSendBatchSize
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.WindowSeconds <= 0 {
		c.Pipeline.WindowSeconds = defaultWindowSeconds
	}
	if c.Pipeline.SegmentSeconds <= 0 {
		c.Pipeline.SegmentSeconds = defaultSegmentSeconds
	}
	if c.Pipeline.WorkerCount <= 0 {
		c.Pipeline.WorkerCount = defaultWorkerCount
	}
	if c.Pipeline.PollIntervalMillis <= 0 {
		c.Pipeline.PollIntervalMillis = defaultPollIntervalMillis
	}
	if c.Pipeline.ProbePrefixBytes <= 0 {
		c.Pipeline.ProbePrefixBytes = defaultProbePrefixBytes
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpegBin = strings.TrimSpace(c.Tools.FFmpegBin)
	if c.Tools.FFmpegBin == "" {
		c.Tools.FFmpegBin = defaultFFmpegBin
	}
	c.Tools.FFprobeBin = strings.TrimSpace(c.Tools.FFprobeBin)
	if c.Tools.FFprobeBin == "" {
		c.Tools.FFprobeBin = defaultFFprobeBin
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() {
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	if c.Metrics.Bind == "" {
		c.Metrics.Bind = defaultMetricsBind
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}
