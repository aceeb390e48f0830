package hlsenc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"vodsmith/internal/ladder"
	"vodsmith/internal/manifest"
)

var commandContext = exec.CommandContext

// Request describes one rung transcode of one chunk window.
type Request struct {
	InputPath      string
	Start          float64
	Duration       float64
	Rung           ladder.Rung
	SegmentSeconds int
	OutputDir      string
	WindowID       string
}

// Client defines the transcode tool behaviour.
type Client interface {
	Transcode(ctx context.Context, req Request) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Transcode scales the window to the rung's height, caps bitrates at the
// rung's values, and writes fixed-duration HLS segments plus the chunk-local
// manifest under the output directory. A non-zero exit returns an error
// carrying the tool's diagnostic output.
func (c *CLI) Transcode(ctx context.Context, req Request) error {
	if req.InputPath == "" {
		return errors.New("input path required")
	}
	if req.OutputDir == "" {
		return errors.New("output directory required")
	}
	if req.Duration <= 0 {
		return fmt.Errorf("window duration must be positive, got %v", req.Duration)
	}

	segmentPattern := filepath.Join(req.OutputDir, manifest.SegmentFilePattern(req.Rung.Name, req.WindowID))
	manifestPath := filepath.Join(req.OutputDir, manifest.ChunkManifestName(req.WindowID))

	args := []string{
		"-ss", formatSeconds(req.Start),
		"-i", req.InputPath,
		"-t", formatSeconds(req.Duration),
		"-hls_time", strconv.Itoa(req.SegmentSeconds),
		"-hls_list_size", "0",
		"-codec:v", "libx264",
		"-preset", "ultrafast",
		"-b:v", req.Rung.VideoBitrate,
		"-maxrate", req.Rung.VideoBitrate,
		"-vf", fmt.Sprintf("scale=-2:%d", req.Rung.Height),
		"-codec:a", "aac",
		"-b:a", req.Rung.AudioBitrate,
		"-f", "hls",
		"-hls_segment_filename", segmentPattern,
		manifestPath,
	}

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg transcode %s/%s: %w: %s", req.WindowID, req.Rung.Name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ Client = (*CLI)(nil)
