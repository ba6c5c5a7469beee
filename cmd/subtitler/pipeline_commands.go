package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subtitler/internal/pipeline"
	"subtitler/internal/preflight"
	"subtitler/internal/stage"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every stage over the data directory",
		Long: `Extract audio from every video, transcribe it, translate the subtitles,
and burn them into copies of the videos. Each stage finishes for all files
before the next one starts; the first failure stops the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				return preflightError(failed)
			}
			runner, err := ctx.runner(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := runner.Run(cmd.Context())
			printReport(cmd.OutOrStdout(), report, err)
			return err
		},
	}
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract MP3 audio from every video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := runner.Extract(cmd.Context())
			printReport(cmd.OutOrStdout(), report, err)
			return err
		},
	}
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe every extracted audio file to SRT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := runner.Transcribe(cmd.Context())
			printReport(cmd.OutOrStdout(), report, err)
			return err
		},
	}
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var target string
	var engine string

	cmd := &cobra.Command{
		Use:   "translate <src.srt> [dst.srt]",
		Short: "Translate one subtitle file",
		Long: `Translate every cue of an SRT file, keeping indices and timestamps.
Without a destination the result is written next to the source with the
configured translated suffix.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if engine = strings.TrimSpace(engine); engine != "" {
				cfg.Translation.Engine = engine
			}
			dst := ""
			if len(args) > 1 {
				dst = args[1]
			}
			runner, err := ctx.runner(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := runner.TranslateFile(cmd.Context(), args[0], dst, target)
			printReport(cmd.OutOrStdout(), report, err)
			return err
		},
	}
	cmd.Flags().StringVar(&target, "to", "", "Target language (BCP 47 tag or language name; default from config)")
	cmd.Flags().StringVar(&engine, "engine", "", "Translation engine: google, llm, or openai")
	return cmd
}

func newBurnCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "burn <video> <subtitle.srt>",
		Short: "Burn a subtitle file into a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := runner.Burn(cmd.Context(), args[0], args[1], output)
			printReport(cmd.OutOrStdout(), report, err)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video path (default: <subtitle_dir>/<stem>_subtitled.mp4)")
	return cmd
}

func printReport(out io.Writer, report *pipeline.Report, runErr error) {
	if report == nil {
		return
	}
	status := "completed"
	if runErr != nil {
		status = "failed"
		if errors.Is(runErr, context.Canceled) {
			status = "cancelled"
		}
	}
	fmt.Fprintf(out, "Run %s %s in %s\n", shortID(report.RunID), status, report.Duration.Round(time.Millisecond))
	for _, r := range report.Results {
		if r.Stage != stage.Compose && r.Stage != stage.Translate {
			continue
		}
		if r.OK() && r.Output != "" {
			fmt.Fprintf(out, "  %-10s %s\n", r.Stage, r.Output)
		}
	}
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed (run `subtitler check` for details): %s", strings.Join(parts, "; "))
}
