// Package config loads, normalizes, and validates subtitler configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and HF_TOKEN. Stage directories default to subdirectories
// of the data root (video, audio, srt, subtitle) so a bare install matches
// the conventional layout.
//
// Always obtain settings through this package so stages receive absolute
// paths and clear validation errors.
package config
