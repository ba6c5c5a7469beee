package whisperx

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestTranscribeBatchRunsSingleProcess(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "srt")
	modelDir := filepath.Join(t.TempDir(), "models")
	svc := NewService(Config{Model: "large", ModelDir: modelDir})

	var calls [][]string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		if name != UVXCommand {
			t.Fatalf("unexpected command %q", name)
		}
		calls = append(calls, args)
		return nil
	})

	sources := []string{"/audio/b.mp3", "/audio/a.mp3"}
	outputs, err := svc.TranscribeBatch(context.Background(), sources, outDir, "")
	if err != nil {
		t.Fatalf("TranscribeBatch returned error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one whisperx invocation, got %d", len(calls))
	}
	want := []string{filepath.Join(outDir, "b.srt"), filepath.Join(outDir, "a.srt")}
	if !slices.Equal(outputs, want) {
		t.Fatalf("unexpected outputs %v", outputs)
	}

	joined := strings.Join(calls[0], " ")
	for _, fragment := range []string{
		"whisperx /audio/b.mp3 /audio/a.mp3",
		"--model large-v3",
		"--model_dir " + modelDir,
		"--output_format srt",
		"--output_dir " + outDir,
		"--device cpu",
		"--vad_method silero",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in args: %s", fragment, joined)
		}
	}
	if strings.Contains(joined, "--language") {
		t.Fatalf("language should be auto-detected when unset: %s", joined)
	}
}

func TestBuildArgsCUDAAndLanguage(t *testing.T) {
	svc := NewService(Config{Model: "medium", CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x"})
	joined := strings.Join(svc.buildArgs([]string{"in.mp3"}, "/out", "en-US"), " ")
	for _, fragment := range []string{
		"--index-url " + CUDAIndexURL,
		"--device cuda",
		"--language en",
		"--hf_token hf_x",
		"--model medium",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in args: %s", fragment, joined)
		}
	}
}

func TestTranscribeBatchEmptyInput(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("runner should not be called")
		return nil
	})
	outputs, err := svc.TranscribeBatch(context.Background(), nil, t.TempDir(), "")
	if err != nil || outputs != nil {
		t.Fatalf("expected no-op, got %v %v", outputs, err)
	}
}

func TestResolveModel(t *testing.T) {
	tests := map[string]string{
		"":               DefaultModel,
		"large":          "large-v3",
		"base":           "base",
		"large-v3-turbo": "large-v3-turbo",
		"distil-large":   "distil-large",
	}
	for in, want := range tests {
		if got := ResolveModel(in); got != want {
			t.Fatalf("ResolveModel(%q) = %q, want %q", in, got, want)
		}
	}
}
