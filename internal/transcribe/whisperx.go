package transcribe

import (
	"context"
	"fmt"
	"os/exec"

	"subtitler/internal/config"
	"subtitler/internal/media/ffprobe"
	"subtitler/internal/services"
	"subtitler/internal/services/whisperx"
	"subtitler/internal/stage"
)

// WhisperX runs the WhisperX CLI through uvx.
type WhisperX struct {
	service  *whisperx.Service
	language string
	ffprobe  string
	inspect  ffprobe.InspectFunc
}

// NewWhisperX builds the engine from transcription settings.
func NewWhisperX(cfg *config.Config) *WhisperX {
	t := cfg.Transcription
	return &WhisperX{
		service: whisperx.NewService(whisperx.Config{
			Model:       t.Model,
			ModelDir:    cfg.Paths.ModelDir,
			CUDAEnabled: t.CUDAEnabled,
			VADMethod:   t.VADMethod,
			HFToken:     t.HFToken,
		}),
		language: t.Language,
		ffprobe:  cfg.FFprobeBinary(),
		inspect:  ffprobe.Inspect,
	}
}

// WithCommandRunner injects a custom command runner (primarily for tests).
func (w *WhisperX) WithCommandRunner(runner whisperx.CommandRunner) *WhisperX {
	w.service.WithCommandRunner(runner)
	return w
}

// WithInspector overrides media inspection (primarily for tests).
func (w *WhisperX) WithInspector(fn ffprobe.InspectFunc) *WhisperX {
	if fn != nil {
		w.inspect = fn
	}
	return w
}

// Name identifies the engine.
func (w *WhisperX) Name() string {
	return fmt.Sprintf("whisperx (%s)", w.service.Model())
}

// HealthCheck verifies uvx is reachable.
func (w *WhisperX) HealthCheck(context.Context) stage.Health {
	if _, err := exec.LookPath(whisperx.UVXCommand); err != nil {
		return stage.Unhealthy(stage.Transcribe, "uvx not found on PATH")
	}
	return stage.Healthy(stage.Transcribe)
}

// TranscribeAll runs one WhisperX process per spoken language. With
// transcription.language set that is a single process over every source.
func (w *WhisperX) TranscribeAll(ctx context.Context, sources []string, outputDir string) error {
	for _, group := range w.groupByLanguage(ctx, sources) {
		if _, err := w.service.TranscribeBatch(ctx, group.sources, outputDir, group.language); err != nil {
			return services.Wrap(services.ErrExternalTool, stage.Transcribe, "whisperx", fmt.Sprintf("%d files", len(group.sources)), err)
		}
	}
	return nil
}

type languageGroup struct {
	language string
	sources  []string
}

// groupByLanguage splits sources by the language tagged in their audio
// metadata, keeping first-seen order. Untagged or unreadable files share
// the "" group, which WhisperX detects itself.
func (w *WhisperX) groupByLanguage(ctx context.Context, sources []string) []languageGroup {
	if w.language != "" {
		return []languageGroup{{language: w.language, sources: sources}}
	}
	var groups []languageGroup
	index := make(map[string]int)
	for _, source := range sources {
		lang := ""
		if info, err := w.inspect(ctx, w.ffprobe, source); err == nil {
			lang = info.AudioLanguage()
		}
		i, ok := index[lang]
		if !ok {
			i = len(groups)
			index[lang] = i
			groups = append(groups, languageGroup{language: lang})
		}
		groups[i].sources = append(groups[i].sources, source)
	}
	return groups
}
