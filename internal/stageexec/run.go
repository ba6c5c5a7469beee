package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"subtitler/internal/ledger"
	"subtitler/internal/logging"
	"subtitler/internal/services"
	"subtitler/internal/stage"
)

// Options describes one stage execution.
type Options struct {
	Logger  *slog.Logger
	Handler stage.Handler
	// Exec performs the stage work and returns the per-file results.
	Exec func(context.Context) ([]stage.Result, error)
}

// Run executes a stage with the lifecycle logging shared by every pipeline
// command: stage context, a stage logger handed to the handler, and
// start/complete/failure events.
func Run(ctx context.Context, opts Options) ([]stage.Result, error) {
	if opts.Handler == nil {
		return nil, errors.New("stage handler unavailable")
	}
	if opts.Exec == nil {
		return nil, fmt.Errorf("stage %s has nothing to execute", opts.Handler.Name())
	}
	name := opts.Handler.Name()

	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	started := time.Now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	results, err := opts.Exec(stageCtx)
	if err != nil {
		return results, handleFailure(stageLogger, name, results, err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("file_count", len(results)),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return results, nil
}

func handleFailure(logger *slog.Logger, name string, results []stage.Result, stageErr error) error {
	var status ledger.Status
	if errors.Is(stageErr, context.Canceled) {
		status = ledger.StatusSkipped
	} else {
		status = services.FailureStatus(stageErr)
	}
	failed := ""
	if n := len(results); n > 0 && !results[n-1].OK() {
		failed = results[n-1].Input
	}
	attrs := []slog.Attr{
		logging.String("resolved_status", string(status)),
		logging.String("failed_input", strings.TrimSpace(failed)),
		logging.Int("completed_before_failure", completed(results)),
		logging.String(logging.FieldErrorHint, hintFor(name, stageErr)),
		logging.Error(stageErr),
	}
	var marked *services.StageError
	if errors.As(stageErr, &marked) && marked.Operation != "" {
		attrs = append(attrs, logging.String("failed_operation", marked.Operation))
	}
	logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)
	return stageErr
}

func completed(results []stage.Result) int {
	n := 0
	for _, r := range results {
		if r.OK() {
			n++
		}
	}
	return n
}

func hintFor(name string, err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check the configuration file and API keys"
	case errors.Is(err, services.ErrValidation):
		return "inspect the offending input file"
	case errors.Is(err, services.ErrNotFound):
		return "verify the " + name + " input directory exists"
	case errors.Is(err, services.ErrExternalTool):
		return "run subtitler check to verify external tools"
	case errors.Is(err, services.ErrTransient):
		return "retry later; the remote service was unavailable"
	default:
		return "check logs for details"
	}
}
