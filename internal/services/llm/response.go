package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"subtitler/internal/services"
)

type chatResponse struct {
	Choices []choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type choice struct {
	Message      reply  `json:"message"`
	Delta        reply  `json:"delta"` // streaming shape, sent by some providers anyway
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type reply struct {
	Content      string `json:"content"`
	Refusal      string `json:"refusal"`
	FunctionCall *struct {
		Arguments string `json:"arguments"`
	} `json:"function_call"`
	ToolCalls []struct {
		Function struct {
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

// text returns the reply body, falling back to function or tool call
// arguments for models that answer JSON mode with a call.
func (r reply) text() string {
	if s := strings.TrimSpace(r.Content); s != "" {
		return s
	}
	if r.FunctionCall != nil {
		if s := strings.TrimSpace(r.FunctionCall.Arguments); s != "" {
			return s
		}
	}
	for _, call := range r.ToolCalls {
		if s := strings.TrimSpace(call.Function.Arguments); s != "" {
			return s
		}
	}
	return ""
}

func (c choice) text() string {
	if s := c.Message.text(); s != "" {
		return s
	}
	if s := c.Delta.text(); s != "" {
		return s
	}
	return strings.TrimSpace(c.Text)
}

// emptyReplyError marks a completion with no usable text. Providers return
// these under load, so it counts as transient.
type emptyReplyError struct {
	finishReason string
	refusal      string
	snippet      string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.finishReason, e.refusal, e.snippet)
}

func (e *emptyReplyError) Unwrap() error { return services.ErrTransient }

func replyText(raw []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(resp.Error.Message))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	for _, ch := range resp.Choices {
		if s := ch.text(); s != "" {
			return s, nil
		}
	}
	first := resp.Choices[0]
	refusal := strings.TrimSpace(first.Message.Refusal)
	if refusal == "" {
		refusal = strings.TrimSpace(first.Delta.Refusal)
	}
	return "", &emptyReplyError{
		finishReason: strings.TrimSpace(first.FinishReason),
		refusal:      refusal,
		snippet:      snippet(string(raw)),
	}
}

// DecodeJSON unmarshals a model reply into target. Replies wrapped in code
// fences or surrounded by prose are reduced to the outermost JSON object or
// array before a second attempt.
func DecodeJSON(content string, target any) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(content), target)
	if err == nil {
		return nil
	}
	inner := extractJSON(content)
	if inner == "" || inner == content {
		return fmt.Errorf("%w (payload snippet: %s)", err, snippet(content))
	}
	if err := json.Unmarshal([]byte(inner), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, snippet(inner))
	}
	return nil
}

func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}
	if s == "" || s[0] == '{' || s[0] == '[' {
		return s
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

// snippet collapses whitespace and caps content at 160 runes for error text.
func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > 160 {
		return string(runes[:160]) + "..."
	}
	return clean
}
