package job

import "math"

// Window is one time slice of a source video.
type Window struct {
	Start float64
	End   float64
}

// ID returns the window's chunk identifier.
func (w Window) ID() string {
	return WindowID(w.Start, w.End)
}

// CountWindows returns ceil(duration / window length).
func CountWindows(duration, windowLen float64) int {
	if duration <= 0 || windowLen <= 0 {
		return 0
	}
	return int(math.Ceil(duration / windowLen))
}

// Windows partitions [0, duration) into fixed-length slices. Every window is
// exactly windowLen long except the last, whose end is clamped to duration so
// the slices cover the timeline with no gaps or overlaps.
func Windows(duration, windowLen float64) []Window {
	count := CountWindows(duration, windowLen)
	if count == 0 {
		return nil
	}
	windows := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * windowLen
		end := math.Min(start+windowLen, duration)
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows
}
