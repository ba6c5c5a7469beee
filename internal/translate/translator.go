package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"subtitler/internal/config"
	"subtitler/internal/fileutil"
	langpkg "subtitler/internal/language"
	"subtitler/internal/logging"
	"subtitler/internal/services"
	"subtitler/internal/srt"
	"subtitler/internal/stage"
)

// Result reports one translated file.
type Result = stage.Result

// Translator applies an Engine to every segment of an SRT file.
type Translator struct {
	engine  Engine
	workers int
	logger  *slog.Logger
}

// New constructs a Translator. workers <= 0 means one request at a time.
func New(engine Engine, workers int, logger *slog.Logger) *Translator {
	if workers <= 0 {
		workers = 1
	}
	return &Translator{
		engine:  engine,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, stage.Translate),
	}
}

// NewFromConfig selects the engine named by translation.engine.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Translator, error) {
	engine, err := NewEngine(cfg.Translation)
	if err != nil {
		return nil, err
	}
	return New(engine, cfg.Translation.Workers, logger), nil
}

// Name identifies the stage.
func (t *Translator) Name() string { return stage.Translate }

// Engine returns the underlying engine.
func (t *Translator) Engine() Engine { return t.engine }

// SetLogger swaps the translator logger.
func (t *Translator) SetLogger(logger *slog.Logger) {
	t.logger = logging.NewComponentLogger(logger, stage.Translate)
}

// HealthCheck reports the translator ready; engines are only exercised by
// real requests.
func (t *Translator) HealthCheck(context.Context) stage.Health {
	if t.engine == nil {
		return stage.Unhealthy(stage.Translate, "no translation engine configured")
	}
	return stage.Healthy(stage.Translate)
}

// ValidateTarget resolves target, a BCP 47 tag or an English language name
// such as "Vietnamese", to its canonical tag.
func ValidateTarget(target string) (string, error) {
	tag, err := langpkg.Parse(target)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stage.Translate, "validate target", fmt.Sprintf("%q is not a language tag or name", target), err)
	}
	return tag.String(), nil
}

// TranslatedPath returns the sibling path for a translated subtitle.
func TranslatedPath(src, outputDir, suffix string) string {
	return filepath.Join(outputDir, fileutil.Stem(src)+suffix+filepath.Ext(src))
}

// TranslateDir translates every SRT in dir whose stem does not already end
// with suffix, writing <stem><suffix>.srt beside it.
func (t *Translator) TranslateDir(ctx context.Context, dir, suffix, target string) ([]Result, error) {
	files, err := fileutil.ListFiles(dir, ".srt")
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, stage.Translate, "list subtitles", dir, err)
	}
	sources := files[:0]
	for _, file := range files {
		if strings.HasSuffix(fileutil.Stem(file), suffix) {
			continue
		}
		sources = append(sources, file)
	}
	t.logger.Info("translating subtitles",
		logging.String(logging.FieldEventType, "translate_start"),
		logging.String("engine", t.engine.Name()),
		logging.String("target", target),
		logging.Int("file_count", len(sources)),
	)

	tracker := stage.Track(ctx, stage.Translate, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return tracker.Done(err)
		}
		dst := TranslatedPath(src, dir, suffix)
		err := tracker.Item(src, func() (string, error) {
			if err := t.TranslateFile(services.WithFile(ctx, filepath.Base(src)), src, dst, target); err != nil {
				return "", err
			}
			return dst, nil
		})
		if err != nil {
			return tracker.Done(err)
		}
	}
	return tracker.Done(nil)
}

// TranslateFile writes dst with every segment of src translated into target.
// Indices and timestamps are copied unchanged. dst is not touched when any
// segment fails.
func (t *Translator) TranslateFile(ctx context.Context, src, dst, target string) error {
	logger := logging.WithFile(ctx, t.logger)
	target, err := ValidateTarget(target)
	if err != nil {
		return err
	}
	segments, err := srt.ReadFile(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, stage.Translate, "read subtitle", filepath.Base(src), err)
		}
		return services.Wrap(services.ErrValidation, stage.Translate, "parse subtitle", filepath.Base(src), err)
	}

	translated, err := t.translateSegments(ctx, logger, segments, target)
	if err != nil {
		return err
	}
	if err := srt.WriteFile(dst, translated); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Translate, "write subtitle", filepath.Base(dst), err)
	}
	logger.Info("subtitle translated",
		logging.String(logging.FieldEventType, "translate_file_complete"),
		logging.String("source", src),
		logging.String("destination", dst),
		logging.Int("segment_count", len(segments)),
	)
	return nil
}

func (t *Translator) translateSegments(ctx context.Context, logger *slog.Logger, segments []srt.Segment, target string) ([]srt.Segment, error) {
	out := make([]srt.Segment, len(segments))
	copy(out, segments)
	if len(segments) == 0 {
		return out, nil
	}

	sampler := logging.NewProgressSampler(25)
	var (
		mu   sync.Mutex
		done int
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(t.workers)
	for i := range segments {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			text, err := t.engine.Translate(groupCtx, segments[i].Text, target)
			if err != nil {
				return fmt.Errorf("segment %d: %w", segments[i].Index, err)
			}
			out[i].Text = text

			mu.Lock()
			done++
			if percent, ok := sampler.Observe(done, len(segments)); ok {
				logger.Debug("translation progress",
					logging.Float64(logging.FieldProgressPercent, percent),
					logging.Int("segments_done", done),
					logging.Int("segments_total", len(segments)),
				)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
