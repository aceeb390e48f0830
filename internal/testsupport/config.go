package testsupport

import (
	"path/filepath"
	"testing"

	"vodsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Storage.FSRoot = filepath.Join(base, "blobs")
	cfgVal.Queues.ReceiveWaitSeconds = 0
	cfgVal.Pipeline.PollIntervalMillis = 10
	cfgVal.Metrics.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithWindowSeconds overrides the chunk window length on the test config.
func WithWindowSeconds(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.WindowSeconds = seconds
	}
}

// WithCountSkippedChunks toggles whether too-short chunks still report
// completion events.
func WithCountSkippedChunks(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.CountSkippedChunks = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ScratchDir)
}
