package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subtitler/internal/ledger"
)

type summaryView struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Failed    int `json:"failed" yaml:"failed"`
	Review    int `json:"review" yaml:"review"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Running   int `json:"running" yaml:"running"`
}

type itemView struct {
	Stage           string    `json:"stage" yaml:"stage"`
	Input           string    `json:"input" yaml:"input"`
	Output          string    `json:"output,omitempty" yaml:"output,omitempty"`
	Status          string    `json:"status" yaml:"status"`
	Error           string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`
	OutputBytes     int64     `json:"output_bytes,omitempty" yaml:"output_bytes,omitempty"`
}

type runView struct {
	ID              string      `json:"id" yaml:"id"`
	Command         string      `json:"command" yaml:"command"`
	Status          string      `json:"status" yaml:"status"`
	Error           string      `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt       time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt      *time.Time  `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	DurationSeconds float64     `json:"duration_seconds" yaml:"duration_seconds"`
	Summary         summaryView `json:"summary" yaml:"summary"`
	Items           []itemView  `json:"items,omitempty" yaml:"items,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var output string
	var runID string
	var limit int
	var prune bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent runs from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			store, err := ctx.ledger()
			if err != nil {
				return err
			}
			if prune {
				removed, err := ctx.pruneHistory(cmd.Context(), store)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d expired %s\n", removed, pluralRuns(removed))
			}
			if strings.TrimSpace(runID) != "" {
				run, err := resolveRun(cmd.Context(), store, runID)
				if err != nil {
					return err
				}
				view, err := buildRunView(cmd.Context(), store, run, true)
				if err != nil {
					return err
				}
				return renderRunDetail(cmd, format, view)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			views := make([]runView, 0, len(runs))
			for _, run := range runs {
				view, err := buildRunView(cmd.Context(), store, run, false)
				if err != nil {
					return err
				}
				views = append(views, view)
			}
			return renderRunList(cmd, format, views)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json, or yaml")
	cmd.Flags().StringVar(&runID, "run", "", "Show one run in detail (id, id prefix, or \"latest\")")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	cmd.Flags().BoolVar(&prune, "prune", false, "Delete runs older than logging.retention_days first")
	return cmd
}

func pluralRuns(n int64) string {
	if n == 1 {
		return "run"
	}
	return "runs"
}

func resolveRun(ctx context.Context, store *ledger.Store, id string) (*ledger.Run, error) {
	id = strings.TrimSpace(id)
	if id == "latest" {
		run, err := store.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, errors.New("no runs recorded")
		}
		return run, nil
	}
	if run, err := store.GetRun(ctx, id); err != nil || run != nil {
		return run, err
	}
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}
	var match *ledger.Run
	for _, run := range runs {
		if !strings.HasPrefix(run.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
		}
		match = run
	}
	if match == nil {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return match, nil
}

func buildRunView(ctx context.Context, store *ledger.Store, run *ledger.Run, withItems bool) (runView, error) {
	summary, err := store.Summarize(ctx, run.ID)
	if err != nil {
		return runView{}, err
	}
	view := runView{
		ID:              run.ID,
		Command:         run.Command,
		Status:          string(run.Status),
		Error:           run.Error,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		DurationSeconds: run.Duration().Seconds(),
		Summary: summaryView{
			Total:     summary.Total,
			Completed: summary.Completed,
			Failed:    summary.Failed,
			Review:    summary.Review,
			Skipped:   summary.Skipped,
			Running:   summary.Running,
		},
	}
	if !withItems {
		return view, nil
	}
	items, err := store.RunItems(ctx, run.ID)
	if err != nil {
		return runView{}, err
	}
	for _, item := range items {
		iv := itemView{
			Stage:           item.Stage,
			Input:           item.Input,
			Output:          item.Output,
			Status:          string(item.Status),
			Error:           item.Error,
			StartedAt:       item.StartedAt,
			DurationSeconds: item.UpdatedAt.Sub(item.StartedAt).Seconds(),
		}
		if item.Output != "" {
			if info, err := os.Stat(item.Output); err == nil {
				iv.OutputBytes = info.Size()
			}
		}
		view.Items = append(view.Items, iv)
	}
	return view, nil
}

func renderRunList(cmd *cobra.Command, format string, views []runView) error {
	switch format {
	case outputJSON:
		return writeJSON(cmd, views)
	case outputYAML:
		return writeYAML(cmd, views)
	}
	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			shortID(v.ID),
			v.Command,
			v.Status,
			humanize.Time(v.StartedAt),
			formatSeconds(v.DurationSeconds),
			fmt.Sprintf("%d/%d", v.Summary.Completed, v.Summary.Total),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]column{
			leftColumn("Run"), leftColumn("Command"), leftColumn("Status"),
			leftColumn("Started"), rightColumn("Duration"), rightColumn("Files"),
		},
		rows,
	))
	return nil
}

func renderRunDetail(cmd *cobra.Command, format string, view runView) error {
	switch format {
	case outputJSON:
		return writeJSON(cmd, view)
	case outputYAML:
		return writeYAML(cmd, view)
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+view.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Command", statusInfo, view.Command, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", ledgerStatusKind(view.Status), view.Status, colorize))
	fmt.Fprintln(out, renderStatusLine("Started", statusInfo, fmt.Sprintf("%s (%s)", view.StartedAt.Local().Format(time.DateTime), humanize.Time(view.StartedAt)), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatSeconds(view.DurationSeconds), colorize))
	if view.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, view.Error, colorize))
	}
	if len(view.Items) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(view.Items))
	for _, item := range view.Items {
		size := ""
		if item.OutputBytes > 0 {
			size = humanize.Bytes(uint64(item.OutputBytes))
		}
		rows = append(rows, []string{
			item.Stage,
			filepath.Base(item.Input),
			item.Status,
			formatSeconds(item.DurationSeconds),
			filepath.Base(item.Output),
			size,
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]column{
			leftColumn("Stage"), leftColumn("Input"), leftColumn("Status"),
			rightColumn("Duration"), leftColumn("Output"), rightColumn("Size"),
		},
		rows,
	))
	return nil
}

func ledgerStatusKind(status string) statusKind {
	switch ledger.Status(status) {
	case ledger.StatusCompleted:
		return statusOK
	case ledger.StatusFailed:
		return statusError
	case ledger.StatusReview, ledger.StatusSkipped, ledger.StatusRunning:
		return statusWarn
	default:
		return statusInfo
	}
}

func formatSeconds(seconds float64) string {
	return (time.Duration(seconds * float64(time.Second))).Round(100 * time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
