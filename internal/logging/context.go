package logging

import (
	"context"
	"log/slog"

	"subtitler/internal/services"
)

// Standard structured field keys.
const (
	FieldComponent     = "component"
	FieldStage         = "stage"
	FieldFile          = "file"
	FieldCorrelationID = "correlation_id"
	// FieldEventType names the event for machine consumers, e.g. stage_failure.
	FieldEventType = "event_type"
	// FieldErrorHint is operator guidance attached to failures.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what a warning means for the output.
	FieldImpact          = "impact"
	FieldProgressPercent = "progress_percent"
)

// WithContext tags logger with the stage, file, and run id carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, slog.String(FieldStage, stage))
	}
	if file, ok := services.FileFromContext(ctx); ok {
		args = append(args, slog.String(FieldFile, file))
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldCorrelationID, id))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}

// WithFile adds only the file being processed from ctx. Stage components use
// it because the logger they receive already carries the stage and
// correlation id.
func WithFile(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if file, ok := services.FileFromContext(ctx); ok {
		return logger.With(slog.String(FieldFile, file))
	}
	return logger
}
