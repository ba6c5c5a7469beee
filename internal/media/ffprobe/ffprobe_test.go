package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStreamCounts(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "video", Width: 1920, Height: 1080},
		{CodecType: "audio"},
		{CodecType: "AUDIO"},
		{CodecType: "subtitle"},
	}}
	if got := result.StreamCount("video"); got != 1 {
		t.Fatalf("video streams = %d, want 1", got)
	}
	if got := result.AudioStreamCount(); got != 2 || !result.HasAudio() {
		t.Fatalf("audio streams = %d, want 2", got)
	}
	if (Result{}).HasAudio() {
		t.Fatal("empty result should have no audio")
	}
}

func TestAudioLanguage(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"untagged", Result{Streams: []Stream{{CodecType: "audio"}}}, ""},
		{"stream tag", Result{Streams: []Stream{
			{CodecType: "video", Tags: map[string]string{"language": "eng"}},
			{CodecType: "audio", Tags: map[string]string{"language": "vie"}},
		}}, "vi"},
		{"first audio stream wins", Result{Streams: []Stream{
			{CodecType: "audio", Tags: map[string]string{"language": "fra"}},
			{CodecType: "audio", Tags: map[string]string{"language": "eng"}},
		}}, "fr"},
		{"container fallback", Result{
			Streams: []Stream{{CodecType: "audio", Tags: map[string]string{"language": "und"}}},
			Format:  Format{Tags: map[string]string{"language": "jpn"}},
		}, "ja"},
		{"unrecognized tag", Result{Streams: []Stream{{CodecType: "audio", Tags: map[string]string{"language": "klingonese"}}}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.AudioLanguage(); got != tt.want {
				t.Fatalf("AudioLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDurationSeconds(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"123.45", 123.45},
		{" 7 ", 7},
		{"", 0},
		{"N/A", 0},
		{"-3", 0},
	}
	for _, tt := range tests {
		got := Result{Format: Format{Duration: tt.raw}}.DurationSeconds()
		if got != tt.want {
			t.Fatalf("DurationSeconds(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestVideoDimensions(t *testing.T) {
	tests := []struct {
		name   string
		stream Stream
		wantW  int
		wantH  int
		wantOK bool
	}{
		{"plain", Stream{CodecType: "video", Width: 1280, Height: 720}, 1280, 720, true},
		{"side data", Stream{CodecType: "video", Width: 1920, Height: 1080, SideData: []SideData{{Type: "Display Matrix", Rotation: -90}}}, 1080, 1920, true},
		{"rotate tag", Stream{CodecType: "video", Width: 640, Height: 480, Tags: map[string]string{"rotate": "270"}}, 480, 640, true},
		{"half turn", Stream{CodecType: "video", Width: 640, Height: 480, Tags: map[string]string{"rotate": "180"}}, 640, 480, true},
		{"unknown size", Stream{CodecType: "video"}, 0, 0, false},
		{"audio only", Stream{CodecType: "audio"}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := Result{Streams: []Stream{tt.stream}}.VideoDimensions()
			if ok != tt.wantOK || w != tt.wantW || h != tt.wantH {
				t.Fatalf("got %dx%d ok=%v, want %dx%d ok=%v", w, h, ok, tt.wantW, tt.wantH, tt.wantOK)
			}
		})
	}
}

func TestParse(t *testing.T) {
	result, err := Parse([]byte(`{"streams":[{"index":0,"codec_type":"audio","codec_name":"aac"}],"format":{"duration":"5.0"}}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.Streams[0].CodecName != "aac" || result.DurationSeconds() != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestInspectRunsBinary(t *testing.T) {
	stub := writeStub(t, "echo '{\"streams\":[{\"codec_type\":\"video\",\"width\":320,\"height\":240}],\"format\":{\"duration\":\"1.5\"}}'\n")
	result, err := Inspect(context.Background(), stub, "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if w, h, _ := result.VideoDimensions(); w != 320 || h != 240 {
		t.Fatalf("unexpected dimensions %dx%d", w, h)
	}
	if _, err := Inspect(context.Background(), stub, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInspectReportsStderr(t *testing.T) {
	stub := writeStub(t, "echo 'moov atom not found' >&2\nexit 1\n")
	_, err := Inspect(context.Background(), stub, "/tmp/broken.mp4")
	if err == nil || !strings.Contains(err.Error(), "moov atom not found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
