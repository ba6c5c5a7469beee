// Package srt reads and writes SubRip (.srt) subtitle files.
//
// A file is a sequence of blank-line separated cues: an index line, a timing
// line `HH:MM:SS,mmm --> HH:MM:SS,mmm`, and one or more text lines. Parsing
// tolerates a UTF-8 byte order mark, CRLF line endings, and `.` as the
// millisecond separator. Writing always emits comma separators, LF endings,
// and indices renumbered from 1.
package srt
