// Package daemon ties the pipeline manager and metrics endpoint into a
// single lifecycle with flock-based locking to prevent multiple instances.
package daemon
