package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"subtitler/internal/deps"
	"subtitler/internal/preflight"
	"subtitler/internal/stage"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify external tools, directories, and engine credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			results := preflight.RunAll(cmd.Context(), cfg)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Readiness", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range readinessLines(results, colorize) {
				fmt.Fprintln(out, line)
			}

			runner, err := ctx.runner(cmd.Context(), io.Discard)
			if err != nil {
				return err
			}
			handlers, handlerErr := runner.Handlers()
			healthLines, stageProblems := stageLines(cmd.Context(), handlers, handlerErr, colorize)
			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Stages", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range healthLines {
				fmt.Fprintln(out, line)
			}

			problems := stageProblems
			for _, status := range statuses {
				if !status.Available && !status.Optional {
					problems = append(problems, status.Name)
				}
			}
			for _, result := range preflight.Failed(results) {
				problems = append(problems, result.Name)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d check(s) failed: %s", len(problems), strings.Join(problems, ", "))
			}
			return nil
		},
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	for _, status := range statuses {
		if status.Available {
			message := "available"
			if status.Command != "" {
				message = fmt.Sprintf("available (%s)", status.Command)
			}
			lines = append(lines, renderStatusLine(status.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(status.Detail)
		if detail == "" {
			detail = "not available"
		}
		lines = append(lines, renderStatusLine(status.Name, checkKind(false, status.Optional), detail, colorize))
	}
	if missing := deps.Missing(statuses); len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func readinessLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		lines = append(lines, renderStatusLine(result.Name, checkKind(result.Passed, false), result.Detail, colorize))
	}
	return lines
}

// stageLines reports each stage component's health. Components that could
// not be built show up through buildErr.
func stageLines(ctx context.Context, handlers []stage.Handler, buildErr error, colorize bool) ([]string, []string) {
	var lines, problems []string
	for _, handler := range handlers {
		health := handler.HealthCheck(ctx)
		if err := health.Err(); err != nil {
			lines = append(lines, renderStatusLine(health.Name, statusError, health.Detail, colorize))
			problems = append(problems, health.Name)
			continue
		}
		lines = append(lines, renderStatusLine(health.Name, statusOK, "ready", colorize))
	}
	if buildErr != nil {
		lines = append(lines, renderStatusLine("Engines", statusError, buildErr.Error(), colorize))
		problems = append(problems, "engines")
	}
	return lines, problems
}
