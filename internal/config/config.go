package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout shared by every pipeline stage.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	VideoDir    string `toml:"video_dir"`
	AudioDir    string `toml:"audio_dir"`
	SRTDir      string `toml:"srt_dir"`
	SubtitleDir string `toml:"subtitle_dir"`
	ModelDir    string `toml:"model_dir"`
	LogDir      string `toml:"log_dir"`
}

// Transcription contains speech recognition settings.
type Transcription struct {
	Engine      string `toml:"engine"`
	Model       string `toml:"model"`
	Language    string `toml:"language"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
	OpenAIModel string `toml:"openai_model"`
	APIKey      string `toml:"api_key"`
}

// Translation contains subtitle translation settings.
type Translation struct {
	Engine         string `toml:"engine"`
	TargetLanguage string `toml:"target_language"`
	Workers        int    `toml:"workers"`
	RetryAttempts  int    `toml:"retry_attempts"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	GoogleBaseURL  string `toml:"google_base_url"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
}

// Compositor contains overlay styling and encoder settings for subtitle burn-in.
type Compositor struct {
	Font            string  `toml:"font"`
	FontSize        int     `toml:"font_size"`
	Color           string  `toml:"color"`
	BackgroundColor string  `toml:"background_color"`
	VerticalRatio   float64 `toml:"vertical_ratio"`
	WidthRatio      float64 `toml:"width_ratio"`
	VideoCodec      string  `toml:"video_codec"`
	Preset          string  `toml:"preset"`
	CRF             int     `toml:"crf"`
	AudioCodec      string  `toml:"audio_codec"`
}

// Pipeline contains driver settings.
type Pipeline struct {
	Pairing           string   `toml:"pairing"`
	VideoExtensions   []string `toml:"video_extensions"`
	TranslatedSuffix  string   `toml:"translated_suffix"`
	SubtitledSuffix   string   `toml:"subtitled_suffix"`
	WatchDebounceSecs int      `toml:"watch_debounce_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for subtitler.
//
// Configuration sections by subsystem:
//   - Paths: data layout (video/audio/srt/subtitle), model cache, logs
//   - Transcription: speech recognition engine and model tier
//   - Translation: translation engine, target language, workers, retries
//   - Compositor: overlay styling and ffmpeg encoder settings
//   - Pipeline: pairing strategy and file naming
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Compositor    Compositor    `toml:"compositor"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath is ~/.config/subtitler/config.toml, made absolute.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subtitler/config.toml")
}

// projectConfigName is looked up in the working directory when no file
// exists at the default path.
const projectConfigName = "subtitler.toml"

// Load reads the configuration at path, or searches the default and project
// locations when path is empty, then fills defaults and validates. A missing
// file is not an error: defaults are used and exists is false. Keys the
// config does not define are rejected so typos surface early.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	resolved, exists, err = locate(path)
	if err != nil {
		return nil, "", false, err
	}
	loaded := Default()
	if exists {
		if err := decodeFile(resolved, &loaded); err != nil {
			return nil, "", false, err
		}
	}
	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}
	return &loaded, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate resolves the config file. An explicit path wins even when missing;
// otherwise the default path is preferred over the project file.
func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		found, err := isFile(expanded)
		return expanded, found, err
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if found, _ := isFile(candidate); found {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the directories every run needs. The video
// directory is created too so a fresh install has somewhere to drop inputs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.VideoDir,
		c.Paths.AudioDir,
		c.Paths.SRTDir,
		c.Paths.SubtitleDir,
		c.Paths.ModelDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// LockPath returns the lock file guarding the data root against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, ".subtitler.lock")
}

// LedgerPath returns the SQLite run ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.LogDir, "ledger.db")
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", value, err)
	}
	return abs, nil
}

// ExpandPath applies the config path rules: a leading ~ is the home
// directory and the result is absolute and clean.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func SampleConfig() string { return sampleConfig }
