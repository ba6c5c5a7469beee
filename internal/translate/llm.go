package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	langpkg "subtitler/internal/language"
	"subtitler/internal/services"
	"subtitler/internal/services/llm"
	"subtitler/internal/stage"
)

// systemPrompt instructs chat models to return a single JSON object.
const systemPrompt = `You translate subtitle lines for a video.
Translate the user's text into %s (language tag %q). Detect the source language yourself.
Keep the meaning, tone and line breaks. Do not add notes, quotes or explanations.
Respond with JSON only, in the form {"translation": "<translated text>"}.`

func buildSystemPrompt(target string) string {
	return fmt.Sprintf(systemPrompt, langpkg.DisplayName(target), target)
}

func buildUserPrompt(text string) string {
	encoded, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return text
	}
	return string(encoded)
}

type translationPayload struct {
	Translation string `json:"translation"`
}

func decodeTranslation(content string) (string, error) {
	var parsed translationPayload
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return "", err
	}
	if strings.TrimSpace(parsed.Translation) == "" {
		return "", fmt.Errorf("empty translation in %q", content)
	}
	return parsed.Translation, nil
}

// LLM translates through an OpenAI-compatible chat endpoint.
type LLM struct {
	client *llm.Client
}

// NewLLM wraps an llm client.
func NewLLM(client *llm.Client) *LLM {
	return &LLM{client: client}
}

// Name identifies the engine.
func (l *LLM) Name() string { return "llm (" + l.client.Model() + ")" }

// Translate returns text rendered in target.
func (l *LLM) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	content, err := l.client.CompleteJSON(ctx, buildSystemPrompt(target), buildUserPrompt(text))
	if err != nil {
		marker := services.ErrExternalTool
		if services.Retryable(err) {
			marker = services.ErrTransient
		}
		return "", services.Wrap(marker, stage.Translate, "llm", "completion failed", err)
	}
	translated, err := decodeTranslation(content)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stage.Translate, "llm", "parse payload", err)
	}
	return translated, nil
}
