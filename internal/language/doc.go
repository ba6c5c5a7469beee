// Package language normalizes language codes for the transcription and
// translation engines.
//
// It accepts BCP 47 tags, ISO 639-1/639-2 codes, and English language names
// and maps them onto the forms each engine expects (2-letter codes for
// Whisper, canonical tags for translation endpoints, English display names
// for LLM prompts). Parsing is delegated to golang.org/x/text.
package language
