package manifest

import "fmt"

// Key layout under the processed bucket. Chunk output keys embed the window id
// so retried chunks overwrite their own prior output deterministically.

// RenditionPrefix returns the object key prefix for one rendition of a video.
func RenditionPrefix(videoID, rendition string) string {
	return fmt.Sprintf("processed/%s/%s/", videoID, rendition)
}

// ChunkManifestKey returns the key of a chunk-local rendition manifest.
func ChunkManifestKey(videoID, rendition, windowID string) string {
	return RenditionPrefix(videoID, rendition) + ChunkManifestName(windowID)
}

// ChunkManifestName returns the file name of a chunk-local manifest.
func ChunkManifestName(windowID string) string {
	return fmt.Sprintf("chunk_%s.m3u8", windowID)
}

// SegmentFilePattern returns the ffmpeg segment filename pattern for a chunk.
func SegmentFilePattern(rendition, windowID string) string {
	return fmt.Sprintf("%s_chunk_%s_%%04d.ts", rendition, windowID)
}

// SequentialKey returns the key of the stitched per-rendition manifest.
func SequentialKey(videoID, rendition string) string {
	return RenditionPrefix(videoID, rendition) + "sequential.m3u8"
}

// MasterKey returns the key of the video's master manifest.
func MasterKey(videoID string) string {
	return fmt.Sprintf("processed/%s/master.m3u8", videoID)
}

// PublicURL builds the delivery address of a processed object.
func PublicURL(cdnDomain, key string) string {
	return fmt.Sprintf("https://%s/%s", cdnDomain, key)
}
