package services

import "context"

type contextKey string

const (
	videoIDKey contextKey = "video_id"
	chunkKey   contextKey = "chunk"
)

// WithVideoID annotates context with the video identifier.
func WithVideoID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, videoIDKey, id)
}

// VideoIDFromContext extracts the video identifier if present.
func VideoIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(videoIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithChunk annotates context with the chunk window identifier.
func WithChunk(ctx context.Context, chunk string) context.Context {
	if chunk == "" {
		return ctx
	}
	return context.WithValue(ctx, chunkKey, chunk)
}

// ChunkFromContext returns the chunk window identifier if present.
func ChunkFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(chunkKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
