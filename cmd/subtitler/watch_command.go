package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subtitler/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline whenever videos are added",
		Long: `Watch the video directory and run the full pipeline once new or changed
videos have been quiet for the configured debounce interval. A run also
starts immediately for videos already present. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runner, err := ctx.runner(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w, err := watch.New(watch.Options{
				Dir:        cfg.Paths.VideoDir,
				Extensions: cfg.Pipeline.VideoExtensions,
				Debounce:   time.Duration(cfg.Pipeline.WatchDebounceSecs) * time.Second,
				RunOnStart: true,
				Logger:     logger,
				Trigger: func(runCtx context.Context) error {
					report, err := runner.Run(runCtx)
					printReport(out, report, err)
					return err
				},
			})
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", cfg.Paths.VideoDir)
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
