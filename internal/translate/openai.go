package translate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"subtitler/internal/config"
	"subtitler/internal/services"
	"subtitler/internal/stage"
)

// OpenAI translates with the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the engine. Extra request options are appended after the
// configured API key, base URL and retry count.
func NewOpenAI(cfg config.Translation, opts ...option.RequestOption) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stage.Translate, "openai", "api key required", nil)
	}
	base := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RetryAttempts > 0 {
		base = append(base, option.WithMaxRetries(cfg.RetryAttempts-1))
	}
	return &OpenAI{
		client: openai.NewClient(append(base, opts...)...),
		model:  cfg.Model,
	}, nil
}

// Name identifies the engine.
func (o *OpenAI) Name() string { return "openai (" + o.model + ")" }

// Translate returns text rendered in target.
func (o *OpenAI) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(target)),
			openai.UserMessage(buildUserPrompt(text)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", services.Wrap(openAIMarker(err), stage.Translate, "openai", "completion failed", err)
	}
	if len(completion.Choices) == 0 {
		return "", services.Wrap(services.ErrExternalTool, stage.Translate, "openai", "empty choices", nil)
	}
	translated, err := decodeTranslation(completion.Choices[0].Message.Content)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stage.Translate, "openai", "parse payload", err)
	}
	return translated, nil
}

func openAIMarker(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return services.ErrConfiguration
		case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode >= http.StatusInternalServerError:
			return services.ErrTransient
		}
	}
	return services.ErrExternalTool
}
