package services

import "context"

type contextKey int

const (
	stageKey contextKey = iota
	fileKey
	requestIDKey
)

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func valueFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithStage records the pipeline stage handling ctx.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, stageKey) }

// WithFile records the input file currently being processed.
func WithFile(ctx context.Context, file string) context.Context {
	return withValue(ctx, fileKey, file)
}

func FileFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, fileKey) }

// WithRequestID records the run id used to correlate log lines and ledger rows.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, requestIDKey) }
