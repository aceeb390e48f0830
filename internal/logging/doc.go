// Package logging centralizes slog construction and the structured field
// conventions shared by the pipeline components.
//
// Loggers are built once at process start from config and handed to components
// as explicit dependencies. Components attach their identity via
// NewComponentLogger and enrich per-item log lines with video and chunk fields
// pulled from the request context.
package logging
