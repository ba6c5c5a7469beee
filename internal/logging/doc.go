// Package logging builds the slog loggers used by every subtitler command.
//
// Console output goes to stderr in a compact line format (or JSON), and each
// run also appends JSON lines to a daily file in the log directory. Helpers
// attach the stage, file, and run id from a context, and WarnWithContext /
// ErrorWithContext make sure failure lines carry an event type and a hint.
package logging
