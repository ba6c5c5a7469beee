package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"subtitler/internal/logging"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 5 * time.Second

// TriggerFunc performs one pipeline run.
type TriggerFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Dir        string
	Extensions []string
	Debounce   time.Duration
	// RunOnStart triggers once before waiting for events so files that
	// arrived while nothing was watching are processed.
	RunOnStart bool
	Trigger    TriggerFunc
	Logger     *slog.Logger
}

// Watcher turns filesystem activity in one directory into pipeline runs.
type Watcher struct {
	opts    Options
	exts    map[string]struct{}
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// New starts watching opts.Dir. Call Close when done.
func New(opts Options) (*Watcher, error) {
	if opts.Trigger == nil {
		return nil, errors.New("watch: trigger is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(opts.Dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Watcher{
		opts:    opts,
		exts:    exts,
		logger:  logging.NewComponentLogger(opts.Logger, "watch"),
		watcher: fw,
	}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks until ctx is cancelled, triggering a run each time the
// directory has been quiet for the debounce interval after a relevant event.
// Trigger failures are logged; the watcher keeps going.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching for videos",
		logging.String(logging.FieldEventType, "watch_start"),
		logging.String("dir", w.opts.Dir),
		logging.Duration("debounce", w.opts.Debounce),
	)
	if w.opts.RunOnStart {
		w.fire(ctx, "startup")
	}

	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := ""

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", logging.String(logging.FieldEventType, "watch_stop"))
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("video activity", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			pending = event.Name
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			if pending == "" {
				continue
			}
			reason := filepath.Base(pending)
			pending = ""
			w.fire(ctx, reason)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may be missed until the next change"),
			)
		}
	}
}

func (w *Watcher) fire(ctx context.Context, reason string) {
	w.logger.Info("triggering run",
		logging.String(logging.FieldEventType, "watch_trigger"),
		logging.String("reason", reason),
	)
	if err := w.opts.Trigger(ctx); err != nil && ctx.Err() == nil {
		logging.ErrorWithContext(w.logger, "triggered run failed", "watch_run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the input and touch a video to retry"),
		)
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	_, ok := w.exts[strings.ToLower(filepath.Ext(base))]
	return ok
}
