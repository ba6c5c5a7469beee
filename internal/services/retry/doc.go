// Package retry holds the backoff policy shared by the HTTP-backed engines.
//
// Requests are retried on HTTP 408, 429 and 5xx responses, on network
// timeouts, and on errors explicitly marked transient. A Retry-After header
// on the response overrides the computed backoff, capped at the policy's
// maximum delay. Context cancellation stops retrying immediately.
package retry
