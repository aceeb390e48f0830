// Package finalizer turns per-chunk completion signals into the video's
// playable manifest set and terminal status.
package finalizer
