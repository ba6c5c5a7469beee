package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"subtitler/internal/deps"
	"subtitler/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("ffmpeg", statusError, "not found", false)
	want := fmt.Sprintf("  %-*s %s", labelWidth, "ffmpeg:", "[FAIL] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("ffmpeg", statusOK, "available", true)
	if !strings.HasPrefix(got, statusOK.ansi()) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestCheckKind(t *testing.T) {
	tests := []struct {
		passed, optional bool
		want             statusKind
	}{
		{true, false, statusOK},
		{true, true, statusOK},
		{false, true, statusWarn},
		{false, false, statusError},
	}
	for _, tt := range tests {
		if got := checkKind(tt.passed, tt.optional); got != tt.want {
			t.Fatalf("checkKind(%v, %v) = %v, want %v", tt.passed, tt.optional, got, tt.want)
		}
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Available: true, Command: "/usr/bin/ffmpeg"},
		{Name: "uvx", Available: false},
		{Name: "drawtext filter", Available: false, Optional: true, Detail: "not compiled in"},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[OK] available (/usr/bin/ffmpeg)") {
		t.Fatalf("expected ready line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[FAIL] not available") {
		t.Fatalf("expected failure detail, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN] not compiled in") {
		t.Fatalf("expected optional warning, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "Missing:") || !strings.Contains(lines[3], "uvx") || strings.Contains(lines[3], "drawtext") {
		t.Fatalf("expected missing summary naming only required deps, got %q", lines[3])
	}
}

func TestReadinessLines(t *testing.T) {
	lines := readinessLines([]preflight.Result{
		{Name: "Video directory", Passed: true, Detail: "/data/video"},
		{Name: "Translation (llm)", Detail: "API key missing"},
	}, false)
	if !strings.Contains(lines[0], "[OK] /data/video") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[FAIL] API key missing") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestRenderSectionHeader(t *testing.T) {
	got := renderSectionHeader(" Readiness ", false)
	if len(got) != 2 || got[0] != "Readiness" || got[1] != "=========" {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{leftColumn("Stage"), rightColumn("Files")}, [][]string{{"extract"}, {"compose", "3", "extra"}})
	for _, want := range []string{"Stage", "Files", "extract", "compose", "3"} {
		requireContains(t, out, want)
	}
	if strings.Contains(out, "STAGE") {
		t.Fatalf("expected header titles to keep their case:\n%s", out)
	}
	if strings.Contains(out, "extra") {
		t.Fatalf("expected cells beyond the header to be dropped:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty table without columns")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q", got)
	}
}
