package job

import "fmt"

// SegmentRequest asks the segmenter to fan a source video out into chunk jobs.
type SegmentRequest struct {
	VideoID   string `json:"VideoID"`
	RawBucket string `json:"RawS3Bucket"`
	RawKey    string `json:"RawS3Key"`
}

// WorkItem is one fixed-length window of a source video awaiting transcode.
// Items are immutable once emitted and may be delivered to workers more than
// once; field names match the wire format consumed by existing workers.
type WorkItem struct {
	VideoID       string  `json:"VideoID"`
	RawBucket     string  `json:"RawS3Bucket"`
	RawKey        string  `json:"RawS3Key"`
	Start         float64 `json:"Start"`
	End           float64 `json:"End"`
	Sequence      int     `json:"ChunkID"` // 1-based
	TotalChunks   int     `json:"TotalChunks"`
	MaxResolution int     `json:"MaxResolution"`
}

// CompletionEvent reports one successfully finished chunk. It is produced at
// most once per finished WorkItem and never on partial success.
type CompletionEvent struct {
	VideoID            string   `json:"VideoID"`
	ChunkID            string   `json:"ChunkID"`
	Sequence           int      `json:"Sequence"`
	TotalChunks        int      `json:"TotalChunks"`
	CompletedQualities []string `json:"CompletedQualities"`
}

// WindowID names a chunk window by its integer second bounds, zero-padded to
// four digits ("0000-0060"). Chunk output keys and manifests embed this id, so
// the segmenter, worker, and finalizer must all derive it identically.
func WindowID(start, end float64) string {
	return fmt.Sprintf("%04d-%04d", int(start), int(end))
}

// WindowID returns the work item's chunk window identifier.
func (w WorkItem) WindowID() string {
	return WindowID(w.Start, w.End)
}
