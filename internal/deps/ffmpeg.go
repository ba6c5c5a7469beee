package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// OutputFunc runs a command and returns its standard output.
type OutputFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpegFeature is a filter or encoder the pipeline needs from ffmpeg.
type FFmpegFeature struct {
	Kind        string // "filter" or "encoder"
	Name        string
	Description string
}

// RequiredFFmpegFeatures lists the ffmpeg components the extract and compose
// stages use. Distribution builds without libfreetype lack drawtext.
var RequiredFFmpegFeatures = []FFmpegFeature{
	{Kind: "encoder", Name: "libmp3lame", Description: "Required for audio extraction"},
	{Kind: "encoder", Name: "libx264", Description: "Required for subtitle burn-in"},
	{Kind: "filter", Name: "drawtext", Description: "Required for subtitle burn-in"},
}

// CheckFFmpegFeatures asks ffmpeg for its filter and encoder lists and reports
// one Status per required feature. A nil run uses exec.
func CheckFFmpegFeatures(ctx context.Context, binary string, run OutputFunc) []Status {
	if run == nil {
		run = commandOutput
	}
	listings := map[string]map[string]bool{}
	failures := map[string]error{}
	for _, kind := range []string{"filter", "encoder"} {
		out, err := run(ctx, binary, "-hide_banner", "-"+kind+"s")
		if err != nil {
			failures[kind] = err
			continue
		}
		listings[kind] = parseComponentList(out)
	}

	results := make([]Status, 0, len(RequiredFFmpegFeatures))
	for _, feature := range RequiredFFmpegFeatures {
		status := Status{
			Name:        fmt.Sprintf("ffmpeg %s %s", feature.Kind, feature.Name),
			Command:     binary,
			Description: feature.Description,
		}
		switch {
		case failures[feature.Kind] != nil:
			status.Detail = fmt.Sprintf("could not list %ss: %v", feature.Kind, failures[feature.Kind])
		case listings[feature.Kind][feature.Name]:
			status.Available = true
		default:
			status.Detail = fmt.Sprintf("%s %q not compiled into ffmpeg", feature.Kind, feature.Name)
		}
		results = append(results, status)
	}
	return results
}

// parseComponentList extracts component names from `ffmpeg -filters` or
// `ffmpeg -encoders` output. Entry lines are a flags column followed by the
// name; legend lines have "=" in the name position.
func parseComponentList(out []byte) map[string]bool {
	names := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[1] == "=" {
			continue
		}
		names[fields[1]] = true
	}
	return names
}

func commandOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
}
