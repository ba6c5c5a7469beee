package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for unset command: %#v", results[2])
	}
}

const filtersOutput = `Filters:
  T.. = Timeline support
  .S. = Slice threading
  ..C = Command support
  A = Audio input/output
 ... drawtext          V->V       Draw text on top of video frames using libfreetype library.
 TSC scale             V->V       Scale the input video size and/or convert the image format.
`

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
`

func TestCheckFFmpegFeatures(t *testing.T) {
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		switch args[len(args)-1] {
		case "-filters":
			return []byte(filtersOutput), nil
		case "-encoders":
			return []byte(encodersOutput), nil
		}
		return nil, errors.New("unexpected args")
	}
	results := CheckFFmpegFeatures(context.Background(), "ffmpeg", run)
	got := map[string]bool{}
	for _, r := range results {
		got[r.Name] = r.Available
	}
	want := map[string]bool{
		"ffmpeg encoder libmp3lame": false,
		"ffmpeg encoder libx264":    true,
		"ffmpeg filter drawtext":    true,
	}
	for name, available := range want {
		if got[name] != available {
			t.Fatalf("%s: expected available=%v, got %v (%+v)", name, available, got[name], results)
		}
	}
}

func TestCheckFFmpegFeaturesReportsListingFailure(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exec: not found")
	}
	for _, r := range CheckFFmpegFeatures(context.Background(), "ffmpeg", run) {
		if r.Available || r.Detail == "" {
			t.Fatalf("expected failure detail, got %+v", r)
		}
	}
}

func TestMissingSkipsOptional(t *testing.T) {
	statuses := []Status{
		{Name: "ffmpeg", Available: true},
		{Name: "uvx"},
		{Name: "drawtext", Optional: true},
	}
	got := Missing(statuses)
	if len(got) != 1 || got[0] != "uvx" {
		t.Fatalf("Missing() = %v, want [uvx]", got)
	}
}

func TestCheckBinariesUsesLookPath(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(name string) (string, error) {
		if name == "ffmpeg" {
			return "/opt/bin/ffmpeg", nil
		}
		return "", errors.New("not found")
	}
	got := CheckBinaries([]Requirement{{Name: "FFmpeg", Command: " ffmpeg "}})
	if !got[0].Available || got[0].Command != "/opt/bin/ffmpeg" {
		t.Fatalf("unexpected status %#v", got[0])
	}
}
