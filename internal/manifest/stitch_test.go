package manifest_test

import (
	"bytes"
	"strings"
	"testing"

	"vodsmith/internal/manifest"
)

const chunkOne = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10.000000,
720p_chunk_0000-0060_0000.ts
#EXTINF:10.000000,
720p_chunk_0000-0060_0001.ts
#EXT-X-ENDLIST
`

const chunkTwo = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10.000000,
720p_chunk_0060-0120_0000.ts
#EXT-X-ENDLIST
`

func TestStitchRenditionPrefixesSegments(t *testing.T) {
	out := string(manifest.StitchRendition("720p", []string{chunkOne, chunkTwo}))

	if !strings.HasPrefix(out, "#EXTM3U\n#EXT-X-VERSION:3\n") {
		t.Fatalf("missing header: %q", out[:40])
	}
	if strings.Count(out, "#EXTM3U") != 1 {
		t.Fatalf("duplicate #EXTM3U header lines:\n%s", out)
	}
	if strings.Count(out, "#EXT-X-VERSION") != 1 {
		t.Fatalf("duplicate version lines:\n%s", out)
	}
	if !strings.Contains(out, "720p/720p_chunk_0000-0060_0000.ts") {
		t.Fatalf("segment not rendition-prefixed:\n%s", out)
	}
	if !strings.HasSuffix(out, "#EXT-X-ENDLIST") {
		t.Fatalf("missing end-of-list marker:\n%s", out)
	}
	if strings.Count(out, "#EXT-X-ENDLIST") != 1 {
		t.Fatalf("per-chunk end-of-list markers leaked into stitched playlist:\n%s", out)
	}

	// Chunk order preserved.
	first := strings.Index(out, "0000-0060_0000.ts")
	second := strings.Index(out, "0060-0120_0000.ts")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("chunk segments out of order:\n%s", out)
	}
}

func TestStitchRenditionIdempotent(t *testing.T) {
	a := manifest.StitchRendition("480p", []string{chunkOne, chunkTwo})
	b := manifest.StitchRendition("480p", []string{chunkOne, chunkTwo})
	if !bytes.Equal(a, b) {
		t.Fatal("stitching the same inputs produced different bytes")
	}
}

func TestMasterOrdersByDescendingBandwidth(t *testing.T) {
	out := string(manifest.Master([]string{"360p", "720p", "480p"}))

	want := "#EXTM3U\n" +
		"#EXT-X-VERSION:3\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720\n" +
		"720p/sequential.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1000000,RESOLUTION=854x480\n" +
		"480p/sequential.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=600000,RESOLUTION=640x360\n" +
		"360p/sequential.m3u8"
	if out != want {
		t.Fatalf("master manifest mismatch:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func TestMasterSkipsUnknownRenditions(t *testing.T) {
	out := string(manifest.Master([]string{"720p", "4320p"}))
	if strings.Contains(out, "4320p") {
		t.Fatalf("unknown rendition leaked into master:\n%s", out)
	}
}

func TestKeys(t *testing.T) {
	if got := manifest.ChunkManifestKey("vid1", "720p", "0000-0060"); got != "processed/vid1/720p/chunk_0000-0060.m3u8" {
		t.Fatalf("chunk manifest key = %q", got)
	}
	if got := manifest.SequentialKey("vid1", "720p"); got != "processed/vid1/720p/sequential.m3u8" {
		t.Fatalf("sequential key = %q", got)
	}
	if got := manifest.MasterKey("vid1"); got != "processed/vid1/master.m3u8" {
		t.Fatalf("master key = %q", got)
	}
	if got := manifest.PublicURL("cdn.example.net", "processed/vid1/master.m3u8"); got != "https://cdn.example.net/processed/vid1/master.m3u8" {
		t.Fatalf("public url = %q", got)
	}
}
