// Package worker consumes chunk work items and produces HLS renditions for
// each window of the source video.
package worker
