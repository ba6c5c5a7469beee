package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"subtitler/internal/config"
	"subtitler/internal/fileutil"
	"subtitler/internal/logging"
	"subtitler/internal/services"
	"subtitler/internal/srt"
	"subtitler/internal/stage"
)

// AudioExtensions lists the audio files the transcriber picks up.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac"}

// Result reports one transcribed file.
type Result = stage.Result

// Engine transcribes a batch of audio files, writing <stem>.srt for each into
// outputDir. Engines may leave a file unwritten when they hear nothing.
type Engine interface {
	Name() string
	TranscribeAll(ctx context.Context, sources []string, outputDir string) error
}

// FileEngine is implemented by engines that process one file per request.
// The transcriber then reports progress per file instead of per batch.
type FileEngine interface {
	Engine
	TranscribeFile(ctx context.Context, source, dst string) error
}

// Transcriber runs the configured engine over a directory of audio files.
type Transcriber struct {
	engine Engine
	logger *slog.Logger
}

// New constructs a Transcriber around engine.
func New(engine Engine, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		engine: engine,
		logger: logging.NewComponentLogger(logger, stage.Transcribe),
	}
}

// NewFromConfig selects the engine named by transcription.engine.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Transcriber, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return New(engine, logger), nil
}

// NewEngine builds the engine named by transcription.engine.
func NewEngine(cfg *config.Config) (Engine, error) {
	switch cfg.Transcription.Engine {
	case config.EngineWhisperX, "":
		return NewWhisperX(cfg), nil
	case config.EngineOpenAI:
		return NewOpenAI(cfg.Transcription)
	default:
		return nil, services.Wrap(services.ErrConfiguration, stage.Transcribe, "select engine", fmt.Sprintf("unknown engine %q", cfg.Transcription.Engine), nil)
	}
}

// Name identifies the stage.
func (t *Transcriber) Name() string { return stage.Transcribe }

// Engine returns the underlying engine.
func (t *Transcriber) Engine() Engine { return t.engine }

// SetLogger swaps the transcriber logger.
func (t *Transcriber) SetLogger(logger *slog.Logger) {
	t.logger = logging.NewComponentLogger(logger, stage.Transcribe)
}

// HealthCheck reports engine readiness when the engine can check itself.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	if checker, ok := t.engine.(interface {
		HealthCheck(context.Context) stage.Health
	}); ok {
		return checker.HealthCheck(ctx)
	}
	return stage.Healthy(stage.Transcribe)
}

// TranscribeDir writes <stem>.srt into outputDir for every audio file in
// inputDir. Transcripts left by an earlier run are removed first, so a file
// the engine skips ends up empty rather than stale.
func (t *Transcriber) TranscribeDir(ctx context.Context, inputDir, outputDir string) ([]Result, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stage.Transcribe, "ensure output dir", outputDir, err)
	}
	sources, err := fileutil.ListFiles(inputDir, AudioExtensions...)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, stage.Transcribe, "list audio", inputDir, err)
	}
	t.logger.Info("transcribing audio",
		logging.String(logging.FieldEventType, "transcribe_start"),
		logging.String("engine", t.engine.Name()),
		logging.Int("audio_count", len(sources)),
	)

	tracker := stage.Track(ctx, stage.Transcribe, len(sources))
	if len(sources) == 0 {
		return tracker.Done(nil)
	}

	if fileEngine, ok := t.engine.(FileEngine); ok {
		for _, source := range sources {
			if err := ctx.Err(); err != nil {
				return tracker.Done(err)
			}
			dst := OutputPath(source, outputDir)
			err := tracker.Item(source, func() (string, error) {
				fileCtx := services.WithFile(ctx, filepath.Base(source))
				if err := removeStale(dst); err != nil {
					return "", err
				}
				if err := fileEngine.TranscribeFile(fileCtx, source, dst); err != nil {
					return "", err
				}
				return dst, t.finalize(fileCtx, dst)
			})
			if err != nil {
				return tracker.Done(err)
			}
		}
		return tracker.Done(nil)
	}

	pending := make([]*stage.Pending, len(sources))
	for i, source := range sources {
		pending[i] = tracker.Start(source)
	}
	if err := t.runBatch(ctx, sources, outputDir); err != nil {
		for _, p := range pending {
			p.Finish("", err)
		}
		return tracker.Done(err)
	}
	var firstErr error
	for i, source := range sources {
		dst := OutputPath(source, outputDir)
		err := t.finalize(services.WithFile(ctx, filepath.Base(source)), dst)
		pending[i].Finish(dst, err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return tracker.Done(firstErr)
}

func (t *Transcriber) runBatch(ctx context.Context, sources []string, outputDir string) error {
	for _, source := range sources {
		if err := removeStale(OutputPath(source, outputDir)); err != nil {
			return err
		}
	}
	return t.engine.TranscribeAll(ctx, sources, outputDir)
}

// finalize guarantees an SRT exists at dst and that it parses.
func (t *Transcriber) finalize(ctx context.Context, dst string) error {
	logger := logging.WithFile(ctx, t.logger)
	segments, err := srt.ReadFile(dst)
	if errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "engine produced no transcript; writing empty subtitle", "transcript_empty",
			logging.String("srt_path", dst),
			logging.String(logging.FieldErrorHint, "audio may be silent or unintelligible"),
			logging.String(logging.FieldImpact, "video will be rendered without subtitles"),
		)
		if err := srt.WriteFile(dst, nil); err != nil {
			return services.Wrap(services.ErrExternalTool, stage.Transcribe, "write empty srt", filepath.Base(dst), err)
		}
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrValidation, stage.Transcribe, "parse transcript", filepath.Base(dst), err)
	}
	logger.Info("transcript written",
		logging.String(logging.FieldEventType, "transcribe_file_complete"),
		logging.String("srt_path", dst),
		logging.Int("segment_count", len(segments)),
	)
	return nil
}

func removeStale(dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrConfiguration, stage.Transcribe, "remove stale transcript", filepath.Base(dst), err)
	}
	return nil
}

// OutputPath returns the SRT path for an audio source.
func OutputPath(source, outputDir string) string {
	return filepath.Join(outputDir, fileutil.Stem(source)+".srt")
}
