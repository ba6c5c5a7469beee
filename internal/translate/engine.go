package translate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"subtitler/internal/config"
	"subtitler/internal/services"
	"subtitler/internal/services/llm"
	"subtitler/internal/services/retry"
	"subtitler/internal/stage"
)

// Engine translates a single piece of text. The source language is detected
// by the engine.
type Engine interface {
	Name() string
	Translate(ctx context.Context, text, target string) (string, error)
}

// NewEngine builds the engine named by translation.engine.
func NewEngine(cfg config.Translation) (Engine, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	policy := retry.Default()
	if cfg.RetryAttempts > 0 {
		policy.Attempts = cfg.RetryAttempts
	}
	switch cfg.Engine {
	case config.EngineGoogle, "":
		return NewGoogle(cfg.GoogleBaseURL, &http.Client{Timeout: timeout}, policy), nil
	case config.EngineLLM:
		if cfg.APIKey == "" {
			return nil, services.Wrap(services.ErrConfiguration, stage.Translate, "llm", "api key required", nil)
		}
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Referer:        cfg.Referer,
			Title:          cfg.Title,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, llm.WithRetryMaxAttempts(policy.Attempts))
		return NewLLM(client), nil
	case config.EngineOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, services.Wrap(services.ErrConfiguration, stage.Translate, "select engine", fmt.Sprintf("unknown engine %q", cfg.Engine), nil)
	}
}
