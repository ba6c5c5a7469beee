package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"subtitler/internal/services"
	"subtitler/internal/services/retry"
	"subtitler/internal/stage"
)

// Google calls the translate_a/single web endpoint used by the free
// Google Translate clients.
type Google struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.Policy
}

// NewGoogle constructs the engine. A nil client uses http.DefaultClient.
func NewGoogle(baseURL string, client *http.Client, policy retry.Policy) *Google {
	if client == nil {
		client = http.DefaultClient
	}
	return &Google{baseURL: baseURL, httpClient: client, retry: policy}
}

// Name identifies the engine.
func (g *Google) Name() string { return "google" }

// Translate returns text rendered in target.
func (g *Google) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	var translated string
	err := g.retry.Do(ctx, "google translate", func(ctx context.Context) error {
		out, err := g.translateOnce(ctx, text, target)
		if err != nil {
			return err
		}
		translated = out
		return nil
	})
	if err != nil {
		marker := services.ErrExternalTool
		if services.Retryable(err) {
			marker = services.ErrTransient
		}
		return "", services.Wrap(marker, stage.Translate, "google", "request failed", err)
	}
	return translated, nil
}

func (g *Google) translateOnce(ctx context.Context, text, target string) (string, error) {
	endpoint, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	query := endpoint.Query()
	query.Set("client", "gtx")
	query.Set("sl", "auto")
	query.Set("tl", target)
	query.Set("dt", "t")
	query.Set("q", text)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if err := retry.CheckResponse(resp, body); err != nil {
		return "", err
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse joins the translated chunks of a response shaped like
// [[["translated","original",...],...],null,"en",...].
func parseGoogleResponse(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("decode response: empty payload")
	}
	chunks, ok := payload[0].([]any)
	if !ok {
		return "", errors.New("decode response: missing sentence list")
	}
	var b strings.Builder
	for _, chunk := range chunks {
		parts, ok := chunk.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("decode response: no translated text")
	}
	return b.String(), nil
}
