// Package ffprobe runs ffprobe and decodes the stream and format fields the
// pipeline needs: audio presence for extraction, display dimensions for
// subtitle layout and duration for logging.
package ffprobe
