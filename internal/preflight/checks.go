package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"subtitler/internal/config"
	"subtitler/internal/deps"
	"subtitler/internal/services/llm"
	"subtitler/internal/services/whisperx"
	"subtitler/internal/translate"
)

// sampleText is translated once to confirm a translation engine answers.
const sampleText = "hello"

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg llm.Config) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(cfg, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckTranslation confirms the configured translation engine can translate
// a sample word. The LLM engine uses the cheaper model health check.
func CheckTranslation(ctx context.Context, cfg config.Translation) Result {
	name := fmt.Sprintf("Translation (%s)", cfg.Engine)
	if cfg.Engine == config.EngineLLM {
		return CheckLLM(ctx, name, llm.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Referer:        cfg.Referer,
			Title:          cfg.Title,
			TimeoutSeconds: cfg.TimeoutSeconds,
		})
	}
	target, err := translate.ValidateTarget(cfg.TargetLanguage)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCfg := cfg
	checkCfg.RetryAttempts = 1
	engine, err := translate.NewEngine(checkCfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	out, err := engine.Translate(checkCtx, sampleText, target)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if strings.TrimSpace(out) == "" {
		return Result{Name: name, Detail: "engine returned an empty translation"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (target %s)", target)}
}

// CheckTranscription verifies the transcription engine is usable without
// starting it: uvx on PATH for WhisperX, an API key for OpenAI.
func CheckTranscription(cfg *config.Config) Result {
	tc := cfg.Transcription
	name := fmt.Sprintf("Transcription (%s)", tc.Engine)
	switch tc.Engine {
	case config.EngineWhisperX:
		if _, err := exec.LookPath(whisperx.UVXCommand); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s not found on PATH", whisperx.UVXCommand)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("model %s", whisperx.ResolveModel(tc.Model))}
	case config.EngineOpenAI:
		return CheckAPIKey(name, tc.APIKey)
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown engine %q", tc.Engine)}
	}
}

// CheckAPIKey reports whether a credential is configured.
func CheckAPIKey(name, key string) Result {
	if strings.TrimSpace(key) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	return Result{Name: name, Passed: true, Detail: "API key configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config and,
// when ffmpeg is present, the ffmpeg components the stages rely on.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction and subtitle burn-in",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	}
	if cfg.Transcription.Engine == config.EngineWhisperX {
		requirements = append(requirements, deps.Requirement{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Required for WhisperX-driven transcription",
		})
	}
	results := deps.CheckBinaries(requirements)
	if results[0].Available {
		results = append(results, deps.CheckFFmpegFeatures(ctx, results[0].Command, nil)...)
	}
	return results
}

// summarizeError produces a human-readable summary for remote check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
