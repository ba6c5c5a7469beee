package stage

import (
	"context"
	"time"
)

// Result records what happened to one input file within a stage.
type Result struct {
	Stage    string
	Input    string
	Output   string
	Err      error
	Duration time.Duration
}

// OK reports whether the item completed without error.
func (r Result) OK() bool {
	return r.Err == nil
}

// Observer receives stage progress. Implementations must be safe for
// sequential calls from one goroutine; stages never report concurrently.
type Observer interface {
	StageStarted(ctx context.Context, stage string, total int)
	ItemStarted(ctx context.Context, stage, input string)
	ItemFinished(ctx context.Context, result Result)
	StageFinished(ctx context.Context, stage string, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StageStarted(context.Context, string, int) {}
func (NopObserver) ItemStarted(context.Context, string, string) {}
func (NopObserver) ItemFinished(context.Context, Result) {}
func (NopObserver) StageFinished(context.Context, string, error) {}

type multiObserver []Observer

// Observers fans events out to every non-nil observer in order.
func Observers(observers ...Observer) Observer {
	filtered := make(multiObserver, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return filtered
}

func (m multiObserver) StageStarted(ctx context.Context, stage string, total int) {
	for _, obs := range m {
		obs.StageStarted(ctx, stage, total)
	}
}

func (m multiObserver) ItemStarted(ctx context.Context, stage, input string) {
	for _, obs := range m {
		obs.ItemStarted(ctx, stage, input)
	}
}

func (m multiObserver) ItemFinished(ctx context.Context, result Result) {
	for _, obs := range m {
		obs.ItemFinished(ctx, result)
	}
}

func (m multiObserver) StageFinished(ctx context.Context, stage string, err error) {
	for _, obs := range m {
		obs.StageFinished(ctx, stage, err)
	}
}

type observerKey struct{}

// WithObserver attaches an observer to ctx for the stage components to report to.
func WithObserver(ctx context.Context, obs Observer) context.Context {
	if obs == nil {
		return ctx
	}
	return context.WithValue(ctx, observerKey{}, obs)
}

// ObserverFromContext returns the attached observer or a NopObserver.
func ObserverFromContext(ctx context.Context) Observer {
	if obs, ok := ctx.Value(observerKey{}).(Observer); ok && obs != nil {
		return obs
	}
	return NopObserver{}
}
