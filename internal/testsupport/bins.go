package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteStubBinary installs an executable shell script under the config's
// scratch-adjacent bin directory and returns its path.
func WriteStubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// StubFFprobe returns a fake ffprobe reporting the given duration and video
// height.
func StubFFprobe(t testing.TB, dir string, duration float64, height int) string {
	t.Helper()

	script := fmt.Sprintf(`#!/bin/sh
cat <<'EOF'
{"format":{"duration":"%g"},"streams":[{"codec_type":"video","height":%d},{"codec_type":"audio"}]}
EOF
`, duration, height)
	return WriteStubBinary(t, dir, "ffprobe", script)
}

// StubFFprobeFailing returns a fake ffprobe that always exits nonzero.
func StubFFprobeFailing(t testing.TB, dir string) string {
	t.Helper()
	return WriteStubBinary(t, dir, "ffprobe", "#!/bin/sh\necho 'moov atom not found' >&2\nexit 1\n")
}

// StubFFmpeg returns a fake ffmpeg that honors the -hls_segment_filename
// pattern and the trailing manifest path, producing one segment and a chunk
// manifest referencing it.
func StubFFmpeg(t testing.TB, dir string) string {
	t.Helper()

	script := `#!/bin/sh
seg=""
prev=""
last=""
for a in "$@"; do
  if [ "$prev" = "-hls_segment_filename" ]; then seg="$a"; fi
  prev="$a"
  last="$a"
done
segfile=$(printf "$seg" 0)
printf 'segment-bytes' > "$segfile"
printf '#EXTM3U\n#EXT-X-VERSION:3\n#EXTINF:10.0,\n%s\n#EXT-X-ENDLIST\n' "$(basename "$segfile")" > "$last"
`
	return WriteStubBinary(t, dir, "ffmpeg", script)
}

// StubFFmpegFailing returns a fake ffmpeg that always exits nonzero.
func StubFFmpegFailing(t testing.TB, dir string) string {
	t.Helper()
	return WriteStubBinary(t, dir, "ffmpeg", "#!/bin/sh\necho 'encoder failure' >&2\nexit 1\n")
}
