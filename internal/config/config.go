package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
}

// Storage selects the blob store backend holding raw sources and processed output.
type Storage struct {
	Backend         string `toml:"backend"` // "s3" or "fs"
	Region          string `toml:"region"`
	RawBucket       string `toml:"raw_bucket"`
	ProcessedBucket string `toml:"processed_bucket"`
	FSRoot          string `toml:"fs_root"`
	CDNDomain       string `toml:"cdn_domain"`
}

// Queues selects the message queue backend and its endpoints.
type Queues struct {
	Backend            string `toml:"backend"` // "sqlite" or "sqs"
	SegmentQueueURL    string `toml:"segment_queue_url"`
	JobQueueURL        string `toml:"job_queue_url"`
	CompletionQueueURL string `toml:"completion_queue_url"`
	VisibilitySeconds  int    `toml:"visibility_seconds"`
	ReceiveWaitSeconds int    `toml:"receive_wait_seconds"`
	SendBatchSize      int    `toml:"send_batch_size"`
}

// Pipeline contains chunking and worker-pool tuning.
type Pipeline struct {
	WindowSeconds      float64 `toml:"window_seconds"`
	SegmentSeconds     int     `toml:"segment_seconds"`
	WorkerCount        int     `toml:"worker_count"`
	PollIntervalMillis int     `toml:"poll_interval_millis"`
	ProbePrefixBytes   int64   `toml:"probe_prefix_bytes"`
	// CountSkippedChunks controls whether a chunk skipped for lack of
	// qualifying renditions emits a zero-rendition completion event. When
	// false a fully skipped video never completes.
	CountSkippedChunks bool `toml:"count_skipped_chunks"`
}

// Tools contains external binary locations.
type Tools struct {
	FFmpegBin  string `toml:"ffmpeg_bin"`
	FFprobeBin string `toml:"ffprobe_bin"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains the Prometheus endpoint configuration.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Config encapsulates all configuration values for vodsmith.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Storage  Storage  `toml:"storage"`
	Queues   Queues   `toml:"queues"`
	Pipeline Pipeline `toml:"pipeline"`
	Tools    Tools    `toml:"tools"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vodsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The second return value is the
// resolved path, the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, statErr := os.Stat(expanded)
		if statErr == nil {
			return expanded, true, nil
		}
		if errors.Is(statErr, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", statErr)
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, statErr := os.Stat(defaultPath); statErr == nil {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the provided path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the scratch, data, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
