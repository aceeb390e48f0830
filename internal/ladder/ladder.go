package ladder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Rung is one quality level in the bitrate ladder: a target height plus the
// video/audio bitrate caps applied when transcoding to it.
type Rung struct {
	Name         string
	Height       int
	VideoBitrate string // ffmpeg rate string, e.g. "2500k"
	AudioBitrate string
}

// Master is the full bitrate ladder, ordered by descending height. Sources are
// never upscaled: a rung applies only when its height does not exceed the
// source height.
var Master = []Rung{
	{Name: "1080p", Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k"},
	{Name: "720p", Height: 720, VideoBitrate: "2500k", AudioBitrate: "128k"},
	{Name: "480p", Height: 480, VideoBitrate: "1000k", AudioBitrate: "96k"},
	{Name: "360p", Height: 360, VideoBitrate: "600k", AudioBitrate: "64k"},
}

// ForCeiling returns the rungs whose target height does not exceed the source
// ceiling. The result may be empty when the source is smaller than the lowest
// rung.
func ForCeiling(maxHeight int) []Rung {
	selected := make([]Rung, 0, len(Master))
	for _, rung := range Master {
		if rung.Height <= maxHeight {
			selected = append(selected, rung)
		}
	}
	return selected
}

// ByName returns the master rung with the given name.
func ByName(name string) (Rung, bool) {
	for _, rung := range Master {
		if rung.Name == name {
			return rung, true
		}
	}
	return Rung{}, false
}

// Bandwidth converts the rung's video bitrate cap into bits per second for
// manifest STREAM-INF attributes ("5000k" becomes 5000000).
func (r Rung) Bandwidth() int {
	value := strings.TrimSuffix(r.VideoBitrate, "k")
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed * 1000
}

// Resolution returns the "WxH" string advertised for the rung. Width derives
// from the height under a 16:9 assumption, except 480p which uses the standard
// 854 width.
func (r Rung) Resolution() string {
	width := r.Height * 16 / 9
	if r.Height == 480 {
		width = 854
	}
	return fmt.Sprintf("%dx%d", width, r.Height)
}

// SortByBandwidthDesc orders rungs by strictly descending bandwidth, the order
// required for master manifest stream entries.
func SortByBandwidthDesc(rungs []Rung) {
	sort.Slice(rungs, func(i, j int) bool {
		return rungs[i].Bandwidth() > rungs[j].Bandwidth()
	})
}
