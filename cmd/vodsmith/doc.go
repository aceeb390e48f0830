// Package main hosts the vodsmith CLI entrypoint and command graph.
//
// The Cobra-based command tree submits source videos to the pipeline, reads
// processing state out of the video store, checks external tool availability,
// and scaffolds configuration. It centralizes configuration resolution so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
