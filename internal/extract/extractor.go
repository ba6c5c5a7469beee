package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"subtitler/internal/config"
	"subtitler/internal/fileutil"
	langpkg "subtitler/internal/language"
	"subtitler/internal/logging"
	"subtitler/internal/media/ffmpeg"
	"subtitler/internal/media/ffprobe"
	"subtitler/internal/services"
	"subtitler/internal/stage"
)

// AudioExt is the extension of extracted audio files.
const AudioExt = ".mp3"

// Result reports one extracted file.
type Result = stage.Result

// Extractor converts videos into standalone audio files.
type Extractor struct {
	logger     *slog.Logger
	ffmpeg     string
	ffprobe    string
	extensions []string
	inspect    ffprobe.InspectFunc
	run        ffmpeg.Runner
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r ffmpeg.Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.run = r
		}
	}
}

// WithInspector overrides media inspection (primarily for tests).
func WithInspector(fn ffprobe.InspectFunc) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.inspect = fn
		}
	}
}

// New constructs an Extractor from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		logger:     logging.NewComponentLogger(logger, stage.Extract),
		ffmpeg:     cfg.FFmpegBinary(),
		ffprobe:    cfg.FFprobeBinary(),
		extensions: append([]string(nil), cfg.Pipeline.VideoExtensions...),
		inspect:    ffprobe.Inspect,
		run:        ffmpeg.Run,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the stage.
func (e *Extractor) Name() string { return stage.Extract }

// SetLogger swaps the extractor logger.
func (e *Extractor) SetLogger(logger *slog.Logger) {
	e.logger = logging.NewComponentLogger(logger, stage.Extract)
}

// HealthCheck verifies ffmpeg and ffprobe are reachable.
func (e *Extractor) HealthCheck(context.Context) stage.Health {
	for _, binary := range []string{e.ffmpeg, e.ffprobe} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy(stage.Extract, fmt.Sprintf("%s not found on PATH", binary))
		}
	}
	return stage.Healthy(stage.Extract)
}

// ExtractDir writes <stem>.mp3 into outputDir for every video in inputDir,
// in sorted order. Files without a video extension are logged and skipped.
// The first failure aborts the stage.
func (e *Extractor) ExtractDir(ctx context.Context, inputDir, outputDir string) ([]Result, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stage.Extract, "ensure output dir", outputDir, err)
	}
	entries, err := fileutil.ListFiles(inputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, stage.Extract, "list videos", inputDir, err)
	}
	var videos []string
	for _, path := range entries {
		if fileutil.HasExt(path, e.extensions...) {
			videos = append(videos, path)
			continue
		}
		logging.WarnWithContext(e.logger, "ignoring non-video file", "extract_file_ignored",
			logging.String(logging.FieldFile, filepath.Base(path)),
			logging.String(logging.FieldImpact, "file is not extracted"),
			logging.String(logging.FieldErrorHint, "accepted extensions are listed in pipeline.video_extensions"),
		)
	}
	e.logger.Info("extracting audio",
		logging.String(logging.FieldEventType, "extract_start"),
		logging.String("input_dir", inputDir),
		logging.Int("video_count", len(videos)),
	)

	tracker := stage.Track(ctx, stage.Extract, len(videos))
	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return tracker.Done(err)
		}
		dst := filepath.Join(outputDir, fileutil.Stem(video)+AudioExt)
		err := tracker.Item(video, func() (string, error) {
			fileCtx := services.WithFile(ctx, filepath.Base(video))
			if err := e.ExtractFile(fileCtx, video, dst); err != nil {
				return "", err
			}
			return dst, nil
		})
		if err != nil {
			return tracker.Done(err)
		}
	}
	return tracker.Done(nil)
}

// ExtractFile writes the audio of src to dst as MP3.
func (e *Extractor) ExtractFile(ctx context.Context, src, dst string) error {
	logger := logging.WithFile(ctx, e.logger)
	info, err := e.inspect(ctx, e.ffprobe, src)
	if err != nil {
		return services.Wrap(services.ErrValidation, stage.Extract, "inspect", fmt.Sprintf("%s is not a readable media file", filepath.Base(src)), err)
	}
	if !info.HasAudio() {
		return services.Wrap(services.ErrValidation, stage.Extract, "inspect", fmt.Sprintf("%s has no audio stream", filepath.Base(src)), nil)
	}
	lang := info.AudioLanguage()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stage.Extract, "ensure output dir", filepath.Dir(dst), err)
	}
	tmp := fileutil.TempPath(dst)
	args := buildArgs(src, tmp, lang)
	logger.Debug("executing ffmpeg",
		logging.String("source", src),
		logging.String("destination", dst),
		logging.Int("audio_streams", info.AudioStreamCount()),
		logging.String("audio_language", lang),
	)
	if err := e.run(ctx, e.ffmpeg, args...); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, stage.Extract, "ffmpeg", filepath.Base(src), err)
	}
	if err := fileutil.Commit(tmp, dst); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Extract, "finalize", filepath.Base(dst), err)
	}
	logger.Info("audio extracted",
		logging.String(logging.FieldEventType, "extract_file_complete"),
		logging.String("audio_path", dst),
		logging.Float64("duration_seconds", info.DurationSeconds()),
	)
	return nil
}

// buildArgs encodes the first audio stream of src as VBR MP3. A known
// language is written as the ID3 TLAN frame, which takes ISO 639-2.
func buildArgs(src, dst, lang string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-sn",
		"-dn",
		"-c:a", "libmp3lame",
		"-q:a", "2",
	}
	if lang != "" {
		args = append(args, "-metadata", "language="+langpkg.ToISO3(lang))
	}
	return append(args, dst)
}
