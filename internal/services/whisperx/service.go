package whisperx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subtitler/internal/language"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service shells out to WhisperX through uvx.
type Service struct {
	cfg    Config
	runner CommandRunner
}

func NewService(cfg Config) *Service {
	if cfg.VADMethod == "" {
		cfg.VADMethod = VADMethodSilero
	}
	return &Service{cfg: cfg, runner: execRunner}
}

// WithCommandRunner replaces process execution, for tests.
func (s *Service) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		s.runner = runner
	}
}

// Model returns the resolved model name.
func (s *Service) Model() string { return ResolveModel(s.cfg.Model) }

// TranscribeBatch transcribes every source in one WhisperX process, which
// loads the model once, and returns the SRT path for each source in input
// order.
func (s *Service) TranscribeBatch(ctx context.Context, sources []string, outputDir, lang string) ([]string, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	if outputDir == "" {
		return nil, errors.New("transcribe: output dir required")
	}
	for _, dir := range []string{outputDir, s.cfg.ModelDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("transcribe: create %s: %w", dir, err)
		}
	}

	if err := s.runner(ctx, UVXCommand, s.buildArgs(sources, outputDir, lang)...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	outputs := make([]string, 0, len(sources))
	for _, source := range sources {
		outputs = append(outputs, OutputPath(source, outputDir))
	}
	return outputs, nil
}

// OutputPath is where WhisperX writes the SRT for source: the source stem
// inside outputDir.
func OutputPath(source, outputDir string) string {
	name := filepath.Base(source)
	return filepath.Join(outputDir, strings.TrimSuffix(name, filepath.Ext(name))+".srt")
}

func (s *Service) buildArgs(sources []string, outputDir, lang string) []string {
	var args []string
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args, "whisperx")
	args = append(args, sources...)
	args = append(args, "--model", s.Model(), "--output_dir", outputDir)
	for _, flag := range decodeFlags {
		args = append(args, flag[0], flag[1])
	}
	if s.cfg.ModelDir != "" {
		args = append(args, "--model_dir", s.cfg.ModelDir)
	}

	args = append(args, "--vad_method", s.cfg.VADMethod)
	if s.cfg.VADMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	// Leaving --language off lets WhisperX detect it.
	if code := language.ToISO2(lang); code != "" {
		args = append(args, "--language", code)
	}
	if s.cfg.CUDAEnabled {
		return append(args, "--device", "cuda")
	}
	return append(args, "--device", "cpu", "--compute_type", "float32")
}

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	// Newer torch defaults torch.load to weights_only, which the pyannote
	// checkpoints bundled with WhisperX cannot load.
	if _, set := os.LookupEnv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD"); !set {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
