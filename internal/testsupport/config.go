package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subtitler/internal/config"
)

// ConfigOption adjusts the config NewConfig builds. root is the test's temp
// directory.
type ConfigOption func(t testing.TB, root string, cfg *config.Config)

// NewConfig returns defaults rooted in a fresh temp directory: stage
// directories under <root>/data, models and logs beside it. Every directory
// exists on return.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	data := filepath.Join(root, "data")
	cfg.Paths = config.Paths{
		DataDir:     data,
		VideoDir:    filepath.Join(data, "video"),
		AudioDir:    filepath.Join(data, "audio"),
		SRTDir:      filepath.Join(data, "srt"),
		SubtitleDir: filepath.Join(data, "subtitle"),
		ModelDir:    filepath.Join(root, "models"),
		LogDir:      filepath.Join(root, "logs"),
	}
	for _, opt := range opts {
		opt(t, root, &cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithTranslationEngine points engine at baseURL. Google uses its own URL
// field; the chat engines share BaseURL.
func WithTranslationEngine(engine, baseURL, apiKey string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Translation.Engine = engine
		cfg.Translation.APIKey = apiKey
		if engine == config.EngineGoogle {
			cfg.Translation.GoogleBaseURL = baseURL
		} else {
			cfg.Translation.BaseURL = baseURL
		}
	}
}

func WithPairing(strategy string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Pipeline.Pairing = strategy
	}
}

// WithStubbedBinaries puts no-op executables for names (ffmpeg, ffprobe and
// uvx when empty) first on PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	if len(names) == 0 {
		names = []string{"ffmpeg", "ffprobe", "uvx"}
	}
	return func(t testing.TB, root string, _ *config.Config) {
		stubBinaries(t, filepath.Join(root, "bin"), names)
	}
}

func stubBinaries(t testing.TB, dir string, names []string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// BaseDir is the temp root NewConfig created for cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
