package stage

import (
	"context"
	"time"
)

// Tracker reports the progress of one stage invocation over a known set of
// inputs and collects the per-item results.
type Tracker struct {
	ctx     context.Context
	obs     Observer
	stage   string
	results []Result
}

// Track announces the stage to the observer in ctx.
func Track(ctx context.Context, stage string, total int) *Tracker {
	obs := ObserverFromContext(ctx)
	obs.StageStarted(ctx, stage, total)
	return &Tracker{ctx: ctx, obs: obs, stage: stage, results: make([]Result, 0, total)}
}

// Pending is an item that has started but not yet finished.
type Pending struct {
	tracker *Tracker
	input   string
	started time.Time
}

// Start marks input as in progress.
func (t *Tracker) Start(input string) *Pending {
	t.obs.ItemStarted(t.ctx, t.stage, input)
	return &Pending{tracker: t, input: input, started: time.Now()}
}

// Finish records the outcome of the item and returns err unchanged.
func (p *Pending) Finish(output string, err error) error {
	result := Result{
		Stage:    p.tracker.stage,
		Input:    p.input,
		Output:   output,
		Err:      err,
		Duration: time.Since(p.started),
	}
	p.tracker.results = append(p.tracker.results, result)
	p.tracker.obs.ItemFinished(p.tracker.ctx, result)
	return err
}

// Item runs fn for input between Start and Finish.
func (t *Tracker) Item(input string, fn func() (string, error)) error {
	pending := t.Start(input)
	output, err := fn()
	return pending.Finish(output, err)
}

// Done closes the stage and returns the collected results with err.
func (t *Tracker) Done(err error) ([]Result, error) {
	t.obs.StageFinished(t.ctx, t.stage, err)
	return t.results, err
}
