package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"subtitler/internal/config"
	"subtitler/internal/fileutil"
	"subtitler/internal/logging"
	"subtitler/internal/media/ffmpeg"
	"subtitler/internal/media/ffprobe"
	"subtitler/internal/services"
	"subtitler/internal/srt"
	"subtitler/internal/stage"
)

// Result reports one rendered video.
type Result = stage.Result

// Job names the inputs and output of one composition.
type Job struct {
	Video    string
	Subtitle string
	Output   string
}

// Compositor renders subtitle overlays onto videos with ffmpeg.
type Compositor struct {
	logger     *slog.Logger
	ffmpeg     string
	ffprobe    string
	style      Style
	videoCodec string
	preset     string
	crf        int
	audioCodec string
	inspect    ffprobe.InspectFunc
	run        ffmpeg.Runner
}

// Option customizes a Compositor.
type Option func(*Compositor)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r ffmpeg.Runner) Option {
	return func(c *Compositor) {
		if r != nil {
			c.run = r
		}
	}
}

// WithInspector overrides media inspection (primarily for tests).
func WithInspector(fn ffprobe.InspectFunc) Option {
	return func(c *Compositor) {
		if fn != nil {
			c.inspect = fn
		}
	}
}

// New constructs a Compositor from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Compositor {
	comp := cfg.Compositor
	c := &Compositor{
		logger:     logging.NewComponentLogger(logger, stage.Compose),
		ffmpeg:     cfg.FFmpegBinary(),
		ffprobe:    cfg.FFprobeBinary(),
		style:      StyleFromConfig(comp),
		videoCodec: comp.VideoCodec,
		preset:     comp.Preset,
		crf:        comp.CRF,
		audioCodec: comp.AudioCodec,
		inspect:    ffprobe.Inspect,
		run:        ffmpeg.Run,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the stage.
func (c *Compositor) Name() string { return stage.Compose }

// SetLogger swaps the compositor logger.
func (c *Compositor) SetLogger(logger *slog.Logger) {
	c.logger = logging.NewComponentLogger(logger, stage.Compose)
}

// HealthCheck verifies ffmpeg and ffprobe are reachable.
func (c *Compositor) HealthCheck(context.Context) stage.Health {
	for _, binary := range []string{c.ffmpeg, c.ffprobe} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy(stage.Compose, fmt.Sprintf("%s not found on PATH", binary))
		}
	}
	return stage.Healthy(stage.Compose)
}

// ComposeAll renders every job in order. The first failure aborts the stage.
func (c *Compositor) ComposeAll(ctx context.Context, jobs []Job) ([]Result, error) {
	tracker := stage.Track(ctx, stage.Compose, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return tracker.Done(err)
		}
		err := tracker.Item(job.Video, func() (string, error) {
			fileCtx := services.WithFile(ctx, filepath.Base(job.Video))
			if err := c.Compose(fileCtx, job.Video, job.Subtitle, job.Output); err != nil {
				return "", err
			}
			return job.Output, nil
		})
		if err != nil {
			return tracker.Done(err)
		}
	}
	return tracker.Done(nil)
}

// Compose writes outputPath: videoPath with the segments of srtPath burned in.
func (c *Compositor) Compose(ctx context.Context, videoPath, srtPath, outputPath string) error {
	logger := logging.WithFile(ctx, c.logger)
	info, err := c.inspect(ctx, c.ffprobe, videoPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, stage.Compose, "inspect", fmt.Sprintf("%s is not a readable media file", filepath.Base(videoPath)), err)
	}
	width, height, ok := info.VideoDimensions()
	if !ok {
		return services.Wrap(services.ErrValidation, stage.Compose, "inspect", fmt.Sprintf("%s has no video stream", filepath.Base(videoPath)), nil)
	}
	segments, err := srt.ReadFile(srtPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, stage.Compose, "read subtitle", filepath.Base(srtPath), err)
	}
	overlays := BuildOverlays(segments, width, height, c.style)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stage.Compose, "ensure output dir", filepath.Dir(outputPath), err)
	}
	tmp := fileutil.TempPath(outputPath)

	if len(overlays) == 0 {
		logging.WarnWithContext(logger, "no visible subtitles; copying source video", "compose_no_overlays",
			logging.String("video", videoPath),
			logging.String("subtitle", srtPath),
			logging.Int("segment_count", len(segments)),
			logging.String(logging.FieldImpact, "output has no burned-in text"),
		)
		if err := fileutil.CopyFileVerified(videoPath, tmp); err != nil {
			_ = os.Remove(tmp)
			return services.Wrap(services.ErrExternalTool, stage.Compose, "copy video", filepath.Base(videoPath), err)
		}
		return c.commit(tmp, outputPath)
	}

	workDir, err := os.MkdirTemp(filepath.Dir(outputPath), ".compose-")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Compose, "create work dir", "", err)
	}
	defer os.RemoveAll(workDir)

	script, err := writeFilterScript(workDir, overlays)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Compose, "write filter script", "", err)
	}
	args := c.buildArgs(videoPath, script, tmp)
	logger.Debug("executing ffmpeg",
		logging.String("video", videoPath),
		logging.Int("overlay_count", len(overlays)),
		logging.Int("width", width),
		logging.Int("height", height),
	)
	if err := c.run(ctx, c.ffmpeg, args...); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, stage.Compose, "ffmpeg", filepath.Base(videoPath), err)
	}
	if err := c.commit(tmp, outputPath); err != nil {
		return err
	}
	logger.Info("subtitles burned in",
		logging.String(logging.FieldEventType, "compose_file_complete"),
		logging.String("output", outputPath),
		logging.Int("overlay_count", len(overlays)),
		logging.Float64("duration_seconds", info.DurationSeconds()),
	)
	return nil
}

func (c *Compositor) commit(tmp, outputPath string) error {
	if err := fileutil.Commit(tmp, outputPath); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Compose, "finalize", filepath.Base(outputPath), err)
	}
	return nil
}

func (c *Compositor) buildArgs(videoPath, script, dst string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-filter_script:v", script,
		"-map", "0:v:0",
		"-map", "0:a?",
		"-c:v", c.videoCodec,
	}
	if c.preset != "" {
		args = append(args, "-preset", c.preset)
	}
	if c.crf > 0 {
		args = append(args, "-crf", strconv.Itoa(c.crf))
	}
	args = append(args,
		"-c:a", c.audioCodec,
		"-movflags", "+faststart",
		dst,
	)
	return args
}
