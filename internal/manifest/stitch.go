package manifest

import (
	"fmt"
	"strings"

	"vodsmith/internal/ladder"
)

// ContentType is the MIME type served for HLS playlists.
const ContentType = "application/x-mpegURL"

// SegmentContentType is the MIME type served for transport stream segments.
const SegmentContentType = "video/mp2t"

const header = "#EXTM3U\n#EXT-X-VERSION:3"

// StitchRendition concatenates chunk-local manifests, provided in ascending
// chunk order, into one continuous rendition playlist. Duplicate structural
// header lines and per-chunk end-of-list markers are dropped, and segment
// entries are prefixed with the rendition folder so the playlist resolves
// relative to the video root. A single end-of-list marker terminates the
// output. The output is
// byte-stable: stitching the same inputs twice yields identical bytes.
func StitchRendition(rendition string, chunks []string) []byte {
	var b strings.Builder
	b.WriteString(header)

	for _, chunk := range chunks {
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.HasPrefix(line, "#EXTM3U") || strings.HasPrefix(line, "#EXT-X-VERSION") {
				continue
			}
			if strings.HasPrefix(line, "#EXT-X-ENDLIST") {
				continue
			}
			if line == "" {
				continue
			}
			b.WriteByte('\n')
			if strings.HasSuffix(line, ".ts") {
				b.WriteString(rendition)
				b.WriteByte('/')
			}
			b.WriteString(line)
		}
	}

	b.WriteString("\n#EXT-X-ENDLIST")
	return []byte(b.String())
}

// Master renders the master manifest for the given rendition names. Unknown
// names are skipped; entries are ordered by strictly descending bandwidth so
// players default to the best quality.
func Master(renditions []string) []byte {
	rungs := make([]ladder.Rung, 0, len(renditions))
	for _, name := range renditions {
		if rung, ok := ladder.ByName(name); ok {
			rungs = append(rungs, rung)
		}
	}
	ladder.SortByBandwidthDesc(rungs)

	var b strings.Builder
	b.WriteString(header)
	for _, rung := range rungs {
		fmt.Fprintf(&b, "\n#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n%s/sequential.m3u8",
			rung.Bandwidth(), rung.Resolution(), rung.Name)
	}
	return []byte(b.String())
}
