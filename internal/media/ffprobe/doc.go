// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect executes the binary and returns a parsed Result; helper methods
// expose the container duration and the primary video stream height, the two
// attributes segmentation needs. A probe that exits non-zero is an error,
// never a partial result.
package ffprobe
