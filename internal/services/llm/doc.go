// Package llm provides a chat client for OpenAI-compatible completion
// endpoints (OpenRouter by default).
//
// The translate package's llm engine is the main caller: it sends each
// subtitle segment with a system prompt that demands a JSON object and
// decodes the reply with DecodeJSON, which tolerates code fences and
// chatter around the payload.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// Requests go through retry.Policy: HTTP 408/429/5xx, network timeouts and
// empty completions are retried with exponential backoff (base 1s, max 10s,
// up to 5 attempts by default). Context cancellation aborts retries
// immediately.
package llm
