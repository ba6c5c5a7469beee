package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/option"

	"subtitler/internal/config"
	"subtitler/internal/services"
	"subtitler/internal/services/llm"
	"subtitler/internal/services/retry"
)

func noSleepPolicy(attempts int) retry.Policy {
	return retry.Policy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Sleeper: func(time.Duration) {}}
}

func TestGoogleTranslateJoinsChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "auto" || q.Get("tl") != "vi" || q.Get("dt") != "t" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("q") != "Hello there. How are you?" {
			t.Errorf("unexpected text %q", q.Get("q"))
		}
		fmt.Fprint(w, `[[["Xin chào. ","Hello there. ",null,null,10],["Bạn khỏe không?","How are you?",null,null,10]],null,"en"]`)
	}))
	defer server.Close()

	engine := NewGoogle(server.URL+"/translate_a/single", server.Client(), noSleepPolicy(1))
	got, err := engine.Translate(context.Background(), "Hello there. How are you?", "vi")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Xin chào. Bạn khỏe không?" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestGoogleTranslateRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[[["Bonjour","Hello"]],null,"en"]`)
	}))
	defer server.Close()

	engine := NewGoogle(server.URL, server.Client(), noSleepPolicy(3))
	got, err := engine.Translate(context.Background(), "Hello", "fr")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Bonjour" || calls != 3 {
		t.Fatalf("unexpected result %q after %d calls", got, calls)
	}
}

func TestGoogleTranslateExhaustedRetriesAreTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	engine := NewGoogle(server.URL, server.Client(), noSleepPolicy(2))
	_, err := engine.Translate(context.Background(), "Hello", "fr")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestGoogleTranslateSkipsBlankText(t *testing.T) {
	engine := NewGoogle("http://127.0.0.1:1", nil, noSleepPolicy(1))
	got, err := engine.Translate(context.Background(), "  ", "fr")
	if err != nil || got != "  " {
		t.Fatalf("blank text should pass through, got %q %v", got, err)
	}
}

func TestParseGoogleResponseErrors(t *testing.T) {
	for _, body := range []string{`{}`, `[]`, `[null]`, `[[]]`} {
		if _, err := parseGoogleResponse([]byte(body)); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestLLMEngineTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[0].Content, "Vietnamese") {
			t.Errorf("system prompt should name the target language: %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, "Good night") {
			t.Errorf("user prompt should carry the text: %q", req.Messages[1].Content)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": "```json\n{\"translation\":\"Chúc ngủ ngon\"}\n```"}},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	engine := NewLLM(llm.NewClient(llm.Config{APIKey: "k", BaseURL: server.URL, Model: "demo"}))
	got, err := engine.Translate(context.Background(), "Good night", "vi")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Chúc ngủ ngon" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestLLMEngineRejectsEmptyTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"translation":""}`}}},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	engine := NewLLM(llm.NewClient(llm.Config{APIKey: "k", BaseURL: server.URL, Model: "demo"}))
	if _, err := engine.Translate(context.Background(), "Hi", "vi"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestOpenAIEngineTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"translation\":\"Hallo\"}"}}]}`)
	}))
	defer server.Close()

	engine, err := NewOpenAI(config.Translation{APIKey: "sk", Model: "gpt-4o-mini", BaseURL: server.URL + "/"}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewOpenAI returned error: %v", err)
	}
	got, err := engine.Translate(context.Background(), "Hello", "de")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Hallo" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestNewEngineSelection(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Translation
		want    string
		wantErr error
	}{
		{name: "default google", cfg: config.Translation{}, want: "google"},
		{name: "llm", cfg: config.Translation{Engine: config.EngineLLM, APIKey: "k", Model: "m"}, want: "llm (m)"},
		{name: "llm without key", cfg: config.Translation{Engine: config.EngineLLM}, wantErr: services.ErrConfiguration},
		{name: "openai without key", cfg: config.Translation{Engine: config.EngineOpenAI}, wantErr: services.ErrConfiguration},
		{name: "unknown", cfg: config.Translation{Engine: "babel"}, wantErr: services.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEngine returned error: %v", err)
			}
			if engine.Name() != tt.want {
				t.Fatalf("unexpected engine %q", engine.Name())
			}
		})
	}
}
