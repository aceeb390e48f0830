// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and CLI.
//
// Load applies defaults first, then the file (if present), then path expansion
// and validation, so a missing config file yields a runnable local setup: fs
// blob storage and the in-process SQLite queue backend.
package config
