package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	langpkg "subtitler/internal/language"
)

// Result is the subset of `ffprobe -show_format -show_streams` output the
// extract and compose stages read.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

type Stream struct {
	Index     int               `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Tags      map[string]string `json:"tags"`
	SideData  []SideData        `json:"side_data_list"`
}

// SideData carries the display matrix rotation phones record instead of
// rotating pixels.
type SideData struct {
	Type     string  `json:"side_data_type"`
	Rotation float64 `json:"rotation"`
}

type Format struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

// InspectFunc matches Inspect so stages can take a fake prober in tests.
type InspectFunc func(ctx context.Context, binary, path string) (Result, error)

// Inspect runs binary (ffprobe when empty) on path and parses its JSON.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if path = strings.TrimSpace(path); path == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	out, err := exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return Parse(out)
}

func Parse(payload []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(payload, &r); err != nil {
		return Result{}, fmt.Errorf("ffprobe: decode output: %w", err)
	}
	return r, nil
}

// StreamCount counts streams of codecType ("audio", "video", "subtitle").
func (r Result) StreamCount(codecType string) int {
	n := 0
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, codecType) {
			n++
		}
	}
	return n
}

func (r Result) AudioStreamCount() int { return r.StreamCount("audio") }

func (r Result) HasAudio() bool { return r.AudioStreamCount() > 0 }

// AudioLanguage is the ISO 639-1 code tagged on the first audio stream, or
// on the container when the stream carries none. Untagged or unrecognized
// media yields "".
func (r Result) AudioLanguage() string {
	for _, s := range r.Streams {
		if !strings.EqualFold(s.CodecType, "audio") {
			continue
		}
		if lang := langpkg.ToISO2(langpkg.ExtractFromTags(s.Tags)); lang != "" {
			return lang
		}
		break
	}
	return langpkg.ToISO2(langpkg.ExtractFromTags(r.Format.Tags))
}

// VideoDimensions returns the displayed size of the first video stream with
// a known size. Quarter-turn rotations swap width and height.
func (r Result) VideoDimensions() (width, height int, ok bool) {
	for _, s := range r.Streams {
		if !strings.EqualFold(s.CodecType, "video") || s.Width <= 0 || s.Height <= 0 {
			continue
		}
		if s.quarterTurned() {
			return s.Height, s.Width, true
		}
		return s.Width, s.Height, true
	}
	return 0, 0, false
}

func (s Stream) quarterTurned() bool {
	degrees := 0.0
	for _, side := range s.SideData {
		if side.Rotation != 0 {
			degrees = side.Rotation
			break
		}
	}
	if degrees == 0 {
		if tag, ok := s.Tags["rotate"]; ok {
			degrees, _ = strconv.ParseFloat(strings.TrimSpace(tag), 64)
		}
	}
	return int(math.Abs(math.Round(degrees/90)))%2 == 1
}

// DurationSeconds is the container duration, or 0 when ffprobe did not
// report a usable one.
func (r Result) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil || math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}
