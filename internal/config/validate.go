package config

import (
	"errors"
	"fmt"
	"strings"

	langpkg "subtitler/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateCompositor(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	dirs := map[string]string{
		"paths.video_dir":    c.Paths.VideoDir,
		"paths.audio_dir":    c.Paths.AudioDir,
		"paths.srt_dir":      c.Paths.SRTDir,
		"paths.subtitle_dir": c.Paths.SubtitleDir,
	}
	seen := make(map[string]string, len(dirs))
	for key, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%s must be set", key)
		}
		if other, ok := seen[dir]; ok {
			return fmt.Errorf("%s and %s must not point at the same directory", other, key)
		}
		seen[dir] = key
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Engine {
	case EngineWhisperX:
		switch c.Transcription.VADMethod {
		case "silero", "pyannote":
		default:
			return fmt.Errorf("transcription.vad_method must be silero or pyannote, got %q", c.Transcription.VADMethod)
		}
	case EngineOpenAI:
		if c.Transcription.APIKey == "" {
			return errors.New("transcription.api_key must be set when transcription.engine is openai (or set OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("transcription.engine must be whisperx or openai, got %q", c.Transcription.Engine)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	if _, err := langpkg.Parse(t.TargetLanguage); err != nil {
		return fmt.Errorf("translation.target_language %q is not a language tag or name: %w", t.TargetLanguage, err)
	}
	switch t.Engine {
	case EngineGoogle:
	case EngineLLM:
		if t.APIKey == "" {
			return errors.New("translation.api_key must be set when translation.engine is llm (or set LLM_API_KEY / OPENROUTER_API_KEY)")
		}
	case EngineOpenAI:
		if t.APIKey == "" {
			return errors.New("translation.api_key must be set when translation.engine is openai (or set OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("translation.engine must be google, llm, or openai, got %q", t.Engine)
	}
	if t.Workers > 32 {
		return errors.New("translation.workers must be <= 32")
	}
	return nil
}

func (c *Config) validateCompositor() error {
	comp := c.Compositor
	if comp.VerticalRatio <= 0 || comp.VerticalRatio >= 1 {
		return errors.New("compositor.vertical_ratio must be between 0 and 1")
	}
	if comp.WidthRatio <= 0 || comp.WidthRatio > 1 {
		return errors.New("compositor.width_ratio must be between 0 and 1")
	}
	if comp.CRF > 51 {
		return errors.New("compositor.crf must be <= 51")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.Pairing {
	case PairingStem, PairingSorted:
	default:
		return fmt.Errorf("pipeline.pairing must be stem or sorted, got %q", c.Pipeline.Pairing)
	}
	if c.Pipeline.TranslatedSuffix == c.Pipeline.SubtitledSuffix {
		return errors.New("pipeline.translated_suffix and pipeline.subtitled_suffix must differ")
	}
	return nil
}
