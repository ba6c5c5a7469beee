package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"subtitler/internal/ledger"
	"subtitler/internal/logging"
	"subtitler/internal/services"
	"subtitler/internal/stage"
)

// ledgerObserver mirrors item progress into the run ledger. Ledger write
// failures are logged and never abort the stage.
type ledgerObserver struct {
	store  *ledger.Store
	runID  string
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*ledger.Item
}

func newLedgerObserver(store *ledger.Store, runID string, logger *slog.Logger) *ledgerObserver {
	return &ledgerObserver{
		store:   store,
		runID:   runID,
		logger:  logger,
		pending: make(map[string]*ledger.Item),
	}
}

func (o *ledgerObserver) StageStarted(context.Context, string, int) {}

func (o *ledgerObserver) StageFinished(context.Context, string, error) {}

func (o *ledgerObserver) ItemStarted(ctx context.Context, stageName, input string) {
	item, err := o.store.StartItem(context.WithoutCancel(ctx), o.runID, stageName, input)
	if err != nil {
		o.warn(ctx, "record item start", stageName, input, err)
		return
	}
	o.mu.Lock()
	o.pending[stageName+"\x00"+input] = item
	o.mu.Unlock()
}

func (o *ledgerObserver) ItemFinished(ctx context.Context, result stage.Result) {
	key := result.Stage + "\x00" + result.Input
	o.mu.Lock()
	item := o.pending[key]
	delete(o.pending, key)
	o.mu.Unlock()
	if item == nil {
		return
	}
	item.Output = result.Output
	item.Status = itemStatus(result.Err)
	if result.Err != nil {
		item.Error = result.Err.Error()
	}
	if err := o.store.FinishItem(context.WithoutCancel(ctx), item); err != nil {
		o.warn(ctx, "record item result", result.Stage, result.Input, err)
	}
}

func (o *ledgerObserver) warn(ctx context.Context, op, stageName, input string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "run ledger write failed", "ledger_write_failed",
		logging.String("operation", op),
		logging.String(logging.FieldStage, stageName),
		logging.String("input", input),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check permissions on the log directory"),
		logging.String(logging.FieldImpact, "subtitler status will be incomplete for this run"),
	)
}

func itemStatus(err error) ledger.Status {
	switch {
	case err == nil:
		return ledger.StatusCompleted
	case errors.Is(err, context.Canceled):
		return ledger.StatusSkipped
	default:
		return services.FailureStatus(err)
	}
}

// collector gathers every finished item of a run for the Report.
type collector struct {
	mu      sync.Mutex
	results []stage.Result
}

func (c *collector) StageStarted(context.Context, string, int) {}

func (c *collector) ItemStarted(context.Context, string, string) {}

func (c *collector) StageFinished(context.Context, string, error) {}

func (c *collector) ItemFinished(_ context.Context, result stage.Result) {
	c.mu.Lock()
	c.results = append(c.results, result)
	c.mu.Unlock()
}

func (c *collector) snapshot() []stage.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]stage.Result(nil), c.results...)
}
