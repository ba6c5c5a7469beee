package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	langpkg "subtitler/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeCompositor()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	stageDirs := []struct {
		key    string
		value  *string
		subdir string
	}{
		{"paths.video_dir", &c.Paths.VideoDir, defaultVideoSubdir},
		{"paths.audio_dir", &c.Paths.AudioDir, defaultAudioSubdir},
		{"paths.srt_dir", &c.Paths.SRTDir, defaultSRTSubdir},
		{"paths.subtitle_dir", &c.Paths.SubtitleDir, defaultSubtitleSubdir},
	}
	for _, dir := range stageDirs {
		if strings.TrimSpace(*dir.value) == "" {
			*dir.value = filepath.Join(c.Paths.DataDir, dir.subdir)
		}
		if *dir.value, err = expandPath(*dir.value); err != nil {
			return fmt.Errorf("%s: %w", dir.key, err)
		}
	}
	if strings.TrimSpace(c.Paths.ModelDir) == "" {
		c.Paths.ModelDir = defaultModelDir
	}
	if c.Paths.ModelDir, err = expandPath(c.Paths.ModelDir); err != nil {
		return fmt.Errorf("paths.model_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Engine = strings.ToLower(strings.TrimSpace(t.Engine))
	if t.Engine == "" {
		t.Engine = defaultTranscriptionEngine
	}
	t.Model = strings.TrimSpace(t.Model)
	if t.Model == "" {
		t.Model = defaultTranscriptionModel
	}
	t.Language = strings.ToLower(strings.TrimSpace(t.Language))
	t.VADMethod = strings.ToLower(strings.TrimSpace(t.VADMethod))
	if t.VADMethod == "" {
		t.VADMethod = defaultVADMethod
	}
	t.HFToken = strings.TrimSpace(t.HFToken)
	if t.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			t.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			t.HFToken = strings.TrimSpace(value)
		}
	}
	t.OpenAIModel = strings.TrimSpace(t.OpenAIModel)
	if t.OpenAIModel == "" {
		t.OpenAIModel = defaultOpenAITranscribe
	}
	t.APIKey = strings.TrimSpace(t.APIKey)
	if t.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			t.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTranslation() {
	t := &c.Translation
	t.Engine = strings.ToLower(strings.TrimSpace(t.Engine))
	if t.Engine == "" {
		t.Engine = defaultTranslationEngine
	}
	t.TargetLanguage = strings.TrimSpace(t.TargetLanguage)
	if t.TargetLanguage == "" {
		t.TargetLanguage = defaultTargetLanguage
	}
	// Names like "Vietnamese" become "vi"; unresolvable values are left for
	// Validate to report.
	if canonical := langpkg.Canonical(t.TargetLanguage); canonical != "" {
		t.TargetLanguage = canonical
	}
	if t.Workers <= 0 {
		t.Workers = defaultTranslationWorkers
	}
	if t.RetryAttempts <= 0 {
		t.RetryAttempts = defaultRetryAttempts
	}
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = defaultTranslationTimeout
	}
	t.GoogleBaseURL = strings.TrimSpace(t.GoogleBaseURL)
	if t.GoogleBaseURL == "" {
		t.GoogleBaseURL = defaultGoogleBaseURL
	}
	t.BaseURL = strings.TrimSpace(t.BaseURL)
	t.Model = strings.TrimSpace(t.Model)
	t.Referer = strings.TrimSpace(t.Referer)
	t.Title = strings.TrimSpace(t.Title)
	switch t.Engine {
	case EngineLLM:
		if t.BaseURL == "" {
			t.BaseURL = defaultLLMBaseURL
		}
		if t.Model == "" {
			t.Model = defaultLLMModel
		}
		if t.Referer == "" {
			t.Referer = defaultLLMReferer
		}
		if t.Title == "" {
			t.Title = defaultLLMTitle
		}
	case EngineOpenAI:
		if t.Model == "" || t.Model == defaultLLMModel {
			t.Model = defaultOpenAITranslateModel
		}
		// The LLM default base URL points at OpenRouter; the OpenAI SDK uses its own.
		if t.BaseURL == defaultLLMBaseURL {
			t.BaseURL = ""
		}
	}
	t.APIKey = strings.TrimSpace(t.APIKey)
	if t.APIKey == "" {
		t.APIKey = translationKeyFromEnv(t.Engine)
	}
}

func translationKeyFromEnv(engine string) string {
	var keys []string
	switch engine {
	case EngineLLM:
		keys = []string{"LLM_API_KEY", "OPENROUTER_API_KEY"}
	case EngineOpenAI:
		keys = []string{"OPENAI_API_KEY"}
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeCompositor() {
	comp := &c.Compositor
	comp.Font = strings.TrimSpace(comp.Font)
	if comp.Font == "" {
		comp.Font = defaultFont
	}
	if comp.FontSize <= 0 {
		comp.FontSize = defaultFontSize
	}
	comp.Color = strings.TrimSpace(comp.Color)
	if comp.Color == "" {
		comp.Color = defaultColor
	}
	comp.BackgroundColor = strings.TrimSpace(comp.BackgroundColor)
	if comp.BackgroundColor == "" {
		comp.BackgroundColor = defaultBackgroundColor
	}
	if comp.VerticalRatio == 0 {
		comp.VerticalRatio = defaultVerticalRatio
	}
	if comp.WidthRatio == 0 {
		comp.WidthRatio = defaultWidthRatio
	}
	comp.VideoCodec = strings.TrimSpace(comp.VideoCodec)
	if comp.VideoCodec == "" {
		comp.VideoCodec = defaultVideoCodec
	}
	comp.Preset = strings.TrimSpace(comp.Preset)
	if comp.Preset == "" {
		comp.Preset = defaultPreset
	}
	if comp.CRF <= 0 {
		comp.CRF = defaultCRF
	}
	comp.AudioCodec = strings.TrimSpace(comp.AudioCodec)
	if comp.AudioCodec == "" {
		comp.AudioCodec = defaultAudioCodec
	}
}

func (c *Config) normalizePipeline() {
	p := &c.Pipeline
	p.Pairing = strings.ToLower(strings.TrimSpace(p.Pairing))
	if p.Pairing == "" {
		p.Pairing = defaultPairing
	}
	exts := make([]string, 0, len(p.VideoExtensions))
	seen := make(map[string]struct{}, len(p.VideoExtensions))
	for _, ext := range p.VideoExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{".mp4"}
	}
	p.VideoExtensions = exts
	if strings.TrimSpace(p.TranslatedSuffix) == "" {
		p.TranslatedSuffix = defaultTranslatedSuffix
	}
	if strings.TrimSpace(p.SubtitledSuffix) == "" {
		p.SubtitledSuffix = defaultSubtitledSuffix
	}
	if p.WatchDebounceSecs <= 0 {
		p.WatchDebounceSecs = defaultWatchDebounceSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
