package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"subtitler/internal/compose"
	"subtitler/internal/config"
	"subtitler/internal/extract"
	"subtitler/internal/fileutil"
	"subtitler/internal/ledger"
	"subtitler/internal/logging"
	"subtitler/internal/services"
	"subtitler/internal/stage"
	"subtitler/internal/stageexec"
	"subtitler/internal/transcribe"
	"subtitler/internal/translate"
)

// Commands recorded in the run ledger.
const (
	CommandRun        = "run"
	CommandExtract    = "extract"
	CommandTranscribe = "transcribe"
	CommandTranslate  = "translate"
	CommandBurn       = "burn"
	CommandWatch      = "watch"
)

// ErrLocked is returned when another run holds the data root.
var ErrLocked = errors.New("another subtitler run is using the data directory")

// Extractor converts videos to audio.
type Extractor interface {
	stage.Handler
	ExtractDir(ctx context.Context, inputDir, outputDir string) ([]stage.Result, error)
}

// Transcriber produces subtitles from audio.
type Transcriber interface {
	stage.Handler
	TranscribeDir(ctx context.Context, inputDir, outputDir string) ([]stage.Result, error)
}

// Translator translates subtitle files.
type Translator interface {
	stage.Handler
	TranslateDir(ctx context.Context, dir, suffix, target string) ([]stage.Result, error)
	TranslateFile(ctx context.Context, src, dst, target string) error
}

// Compositor burns subtitles into videos.
type Compositor interface {
	stage.Handler
	ComposeAll(ctx context.Context, jobs []compose.Job) ([]stage.Result, error)
}

// Report summarizes one finished (or aborted) run.
type Report struct {
	RunID    string
	Command  string
	Results  []stage.Result
	Duration time.Duration
}

// Runner executes pipeline commands against one configuration.
type Runner struct {
	cfg      *config.Config
	layout   Layout
	logger   *slog.Logger
	store    *ledger.Store
	observer stage.Observer
	lock     *flock.Flock
	newID    func() string

	extractor   Extractor
	transcriber Transcriber
	translator  Translator
	compositor  Compositor
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLedger records runs and items in store.
func WithLedger(store *ledger.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithObserver adds an observer that receives every stage event, typically a
// progress renderer.
func WithObserver(obs stage.Observer) Option {
	return func(r *Runner) { r.observer = obs }
}

// WithExtractor overrides the audio extractor.
func WithExtractor(e Extractor) Option {
	return func(r *Runner) { r.extractor = e }
}

// WithTranscriber overrides the transcriber.
func WithTranscriber(t Transcriber) Option {
	return func(r *Runner) { r.transcriber = t }
}

// WithTranslator overrides the subtitle translator.
func WithTranslator(t Translator) Option {
	return func(r *Runner) { r.translator = t }
}

// WithCompositor overrides the compositor.
func WithCompositor(c Compositor) Option {
	return func(r *Runner) { r.compositor = c }
}

// WithIDGenerator overrides run id generation (primarily for tests).
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New constructs a Runner. Engines that need credentials are built on first
// use so commands that never reach them do not require their configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		layout: LayoutFromConfig(cfg),
		logger: logging.NewComponentLogger(logger, "pipeline"),
		lock:   flock.New(cfg.LockPath()),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.extractor == nil {
		r.extractor = extract.New(cfg, logger)
	}
	if r.compositor == nil {
		r.compositor = compose.New(cfg, logger)
	}
	return r, nil
}

// Layout returns the directories the runner works on.
func (r *Runner) Layout() Layout { return r.layout }

// Handlers returns every stage component, constructing lazy ones. Components
// that cannot be constructed are reported through err.
func (r *Runner) Handlers() ([]stage.Handler, error) {
	transcriber, terr := r.transcriberFor()
	translator, lerr := r.translatorFor()
	handlers := []stage.Handler{r.extractor}
	if terr == nil {
		handlers = append(handlers, transcriber)
	}
	if lerr == nil {
		handlers = append(handlers, translator)
	}
	handlers = append(handlers, r.compositor)
	return handlers, errors.Join(terr, lerr)
}

// Run executes the full pipeline: extract, transcribe, translate, then pair
// and compose. Each stage completes for every file before the next starts.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	return r.Execute(ctx, CommandRun, func(ctx context.Context) error {
		transcriber, err := r.transcriberFor()
		if err != nil {
			return err
		}
		translator, err := r.translatorFor()
		if err != nil {
			return err
		}
		if err := r.extractStage(ctx); err != nil {
			return err
		}
		if err := r.transcribeStage(ctx, transcriber); err != nil {
			return err
		}
		if err := r.translateStage(ctx, translator); err != nil {
			return err
		}
		return r.composeStage(ctx)
	})
}

// Extract runs only the audio extraction stage.
func (r *Runner) Extract(ctx context.Context) (*Report, error) {
	return r.Execute(ctx, CommandExtract, r.extractStage)
}

// Transcribe runs only the transcription stage.
func (r *Runner) Transcribe(ctx context.Context) (*Report, error) {
	return r.Execute(ctx, CommandTranscribe, func(ctx context.Context) error {
		transcriber, err := r.transcriberFor()
		if err != nil {
			return err
		}
		return r.transcribeStage(ctx, transcriber)
	})
}

// TranslateFile translates a single subtitle file into target. An empty
// target uses the configured language.
func (r *Runner) TranslateFile(ctx context.Context, src, dst, target string) (*Report, error) {
	if strings.TrimSpace(target) == "" {
		target = r.cfg.Translation.TargetLanguage
	}
	if strings.TrimSpace(dst) == "" {
		dst = translate.TranslatedPath(src, filepath.Dir(src), r.cfg.Pipeline.TranslatedSuffix)
	}
	return r.Execute(ctx, CommandTranslate, func(ctx context.Context) error {
		translator, err := r.translatorFor()
		if err != nil {
			return err
		}
		_, err = stageexec.Run(ctx, stageexec.Options{
			Logger:  r.logger,
			Handler: translator,
			Exec: func(ctx context.Context) ([]stage.Result, error) {
				tracker := stage.Track(ctx, stage.Translate, 1)
				err := tracker.Item(src, func() (string, error) {
					if err := translator.TranslateFile(services.WithFile(ctx, filepath.Base(src)), src, dst, target); err != nil {
						return "", err
					}
					return dst, nil
				})
				return tracker.Done(err)
			},
		})
		return err
	})
}

// Burn composes one video with one subtitle file. An empty output writes
// <video-stem><suffix>.mp4 into the subtitle directory.
func (r *Runner) Burn(ctx context.Context, video, subtitle, output string) (*Report, error) {
	if strings.TrimSpace(output) == "" {
		output = r.layout.OutputPath(video, r.cfg.Pipeline.SubtitledSuffix)
	}
	return r.Execute(ctx, CommandBurn, func(ctx context.Context) error {
		_, err := stageexec.Run(ctx, stageexec.Options{
			Logger:  r.logger,
			Handler: r.compositor,
			Exec: func(ctx context.Context) ([]stage.Result, error) {
				return r.compositor.ComposeAll(ctx, []compose.Job{{Video: video, Subtitle: subtitle, Output: output}})
			},
		})
		return err
	})
}

// Execute runs fn as one ledgered run named command while holding the data
// root lock. The returned report is populated even when fn fails.
func (r *Runner) Execute(ctx context.Context, command string, fn func(context.Context) error) (*Report, error) {
	locked, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", r.lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, r.lock.Path())
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	runID := r.newID()
	runCtx := services.WithRequestID(ctx, runID)
	logger := logging.WithContext(runCtx, r.logger)

	results := &collector{}
	observers := []stage.Observer{results, r.observer}
	if r.store != nil {
		if _, err := r.store.StartRun(runCtx, runID, command); err != nil {
			return nil, fmt.Errorf("record run start: %w", err)
		}
		observers = append(observers, newLedgerObserver(r.store, runID, r.logger))
	}
	runCtx = stage.WithObserver(runCtx, stage.Observers(observers...))

	started := time.Now()
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("command", command),
		logging.String("data_dir", r.cfg.Paths.DataDir),
	)
	runErr := fn(runCtx)
	report := &Report{
		RunID:    runID,
		Command:  command,
		Results:  results.snapshot(),
		Duration: time.Since(started),
	}

	status := ledger.StatusCompleted
	errMsg := ""
	if runErr != nil {
		status = itemStatus(runErr)
		errMsg = runErr.Error()
	}
	if r.store != nil {
		if err := r.store.FinishRun(context.WithoutCancel(runCtx), runID, status, errMsg); err != nil {
			logging.WarnWithContext(logger, "failed to record run result", "ledger_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run status will show as running"),
			)
		}
	}
	if runErr != nil {
		logging.ErrorWithContext(logger, "run failed", "run_failure",
			logging.String("command", command),
			logging.String("resolved_status", string(status)),
			logging.Duration("run_duration", report.Duration),
			logging.Error(runErr),
		)
		return report, runErr
	}
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("command", command),
		logging.Int("file_count", len(report.Results)),
		logging.Duration("run_duration", report.Duration),
	)
	return report, nil
}

func (r *Runner) extractStage(ctx context.Context) error {
	_, err := stageexec.Run(ctx, stageexec.Options{
		Logger:  r.logger,
		Handler: r.extractor,
		Exec: func(ctx context.Context) ([]stage.Result, error) {
			return r.extractor.ExtractDir(ctx, r.layout.VideoDir, r.layout.AudioDir)
		},
	})
	return err
}

func (r *Runner) transcribeStage(ctx context.Context, transcriber Transcriber) error {
	_, err := stageexec.Run(ctx, stageexec.Options{
		Logger:  r.logger,
		Handler: transcriber,
		Exec: func(ctx context.Context) ([]stage.Result, error) {
			return transcriber.TranscribeDir(ctx, r.layout.AudioDir, r.layout.SRTDir)
		},
	})
	return err
}

func (r *Runner) translateStage(ctx context.Context, translator Translator) error {
	_, err := stageexec.Run(ctx, stageexec.Options{
		Logger:  r.logger,
		Handler: translator,
		Exec: func(ctx context.Context) ([]stage.Result, error) {
			return translator.TranslateDir(ctx, r.layout.SRTDir, r.cfg.Pipeline.TranslatedSuffix, r.cfg.Translation.TargetLanguage)
		},
	})
	return err
}

func (r *Runner) composeStage(ctx context.Context) error {
	jobs, err := r.Jobs(ctx)
	if err != nil {
		return err
	}
	_, err = stageexec.Run(ctx, stageexec.Options{
		Logger:  r.logger,
		Handler: r.compositor,
		Exec: func(ctx context.Context) ([]stage.Result, error) {
			return r.compositor.ComposeAll(ctx, jobs)
		},
	})
	return err
}

// Jobs pairs the videos in the layout with their translated subtitles using
// the configured pairing mode.
func (r *Runner) Jobs(ctx context.Context) ([]compose.Job, error) {
	videos, err := fileutil.ListFiles(r.layout.VideoDir, r.cfg.Pipeline.VideoExtensions...)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, stage.Compose, "list videos", r.layout.VideoDir, err)
	}
	all, err := fileutil.ListFiles(r.layout.SRTDir, ".srt")
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, stage.Compose, "list subtitles", r.layout.SRTDir, err)
	}
	suffix := r.cfg.Pipeline.TranslatedSuffix
	var subs []string
	for _, path := range all {
		if strings.HasSuffix(fileutil.Stem(path), suffix) {
			subs = append(subs, path)
		}
	}

	var pairs []Pair
	switch r.cfg.Pipeline.Pairing {
	case config.PairingSorted:
		if len(videos) != len(subs) {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "video and subtitle counts differ; sorted pairing will drop files", "pairing_count_mismatch",
				logging.Int("video_count", len(videos)),
				logging.Int("subtitle_count", len(subs)),
				logging.String(logging.FieldErrorHint, "set pipeline.pairing = \"stem\" to match files by name"),
				logging.String(logging.FieldImpact, "some videos will not be subtitled or will get the wrong subtitles"),
			)
		}
		pairs = PairSorted(videos, subs)
	default:
		pairs, err = PairByStem(videos, subs, suffix)
		if err != nil {
			return nil, fmt.Errorf("%s: pair videos: %w", stage.Compose, err)
		}
	}

	jobs := make([]compose.Job, 0, len(pairs))
	for _, p := range pairs {
		jobs = append(jobs, compose.Job{
			Video:    p.Video,
			Subtitle: p.Subtitle,
			Output:   r.layout.OutputPath(p.Video, r.cfg.Pipeline.SubtitledSuffix),
		})
	}
	return jobs, nil
}

func (r *Runner) transcriberFor() (Transcriber, error) {
	if r.transcriber == nil {
		t, err := transcribe.NewFromConfig(r.cfg, r.logger)
		if err != nil {
			return nil, err
		}
		r.transcriber = t
	}
	return r.transcriber, nil
}

func (r *Runner) translatorFor() (Translator, error) {
	if r.translator == nil {
		t, err := translate.NewFromConfig(r.cfg, r.logger)
		if err != nil {
			return nil, err
		}
		r.translator = t
	}
	return r.translator, nil
}
