package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"subtitler/internal/config"
	"subtitler/internal/ledger"
	"subtitler/internal/logging"
	"subtitler/internal/pipeline"
	"subtitler/internal/stage"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	store *ledger.Store
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// ensureLogger builds the run logger and prunes old log files once per
// process.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
			Dir:     cfg.Paths.LogDir,
			Pattern: logging.LogFilePattern,
			Exclude: []string{logging.LogFilePath(cfg.Paths.LogDir, time.Now())},
		})
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) ledger() (*ledger.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}
	c.store = store
	return store, nil
}

// pruneHistory deletes ledger runs that started before the log retention
// window, so run history and log files age out together. Zero retention
// keeps everything.
func (c *commandContext) pruneHistory(ctx context.Context, store *ledger.Store) (int64, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return 0, err
	}
	if cfg.Logging.RetentionDays <= 0 {
		return 0, nil
	}
	return store.Prune(ctx, time.Now().AddDate(0, 0, -cfg.Logging.RetentionDays))
}

// runner wires a pipeline runner with the ledger and, on terminals, a
// progress display on errOut. Expired runs are pruned from the ledger first.
func (c *commandContext) runner(ctx context.Context, errOut io.Writer) (*pipeline.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	store, err := c.ledger()
	if err != nil {
		return nil, err
	}
	if removed, err := c.pruneHistory(ctx, store); err != nil {
		logging.WarnWithContext(logger, "run history prune failed", "ledger_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "expired runs stay in the ledger"),
		)
	} else if removed > 0 {
		logger.Info("pruned run history",
			logging.String(logging.FieldEventType, "ledger_pruned"),
			logging.Int("runs_removed", int(removed)),
			logging.Int("retention_days", cfg.Logging.RetentionDays),
		)
	}
	var observer stage.Observer
	if shouldColorize(errOut) {
		observer = newProgressObserver(errOut)
	}
	return pipeline.New(cfg, logger, pipeline.WithLedger(store), pipeline.WithObserver(observer))
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
