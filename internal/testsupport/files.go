package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"subtitler/internal/srt"
)

// WriteFile creates path, and any missing parents, holding size filler
// bytes. Sizes below one are bumped to one so the file is never empty.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := bytes.Repeat([]byte{'B'}, int(max(size, 1)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSRT writes segments to path, failing the test on error.
func WriteSRT(t testing.TB, path string, segments ...srt.Segment) {
	t.Helper()
	if err := srt.WriteFile(path, segments); err != nil {
		t.Fatalf("write srt %s: %v", path, err)
	}
}

// Cue builds a segment spanning [startMS, endMS) milliseconds.
func Cue(startMS, endMS int64, text string) srt.Segment {
	return srt.Segment{Start: srt.FromMillis(startMS), End: srt.FromMillis(endMS), Text: text}
}
