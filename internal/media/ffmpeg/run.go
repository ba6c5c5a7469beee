// Package ffmpeg runs the ffmpeg command line tools for the extract and
// compose stages.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a command. Stages take one so tests can record calls
// instead of encoding.
type Runner func(ctx context.Context, name string, args ...string) error

// Run executes name and, on failure, appends its combined output to the
// error. ffmpeg reports the cause on stderr.
func Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
