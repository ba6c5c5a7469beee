package srt

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"subtitler/internal/fileutil"
)

// Segment is one timed caption.
type Segment struct {
	Index int
	Start Timestamp
	End   Timestamp
	Text  string
}

// Duration returns End - Start in seconds.
func (s Segment) Duration() float64 {
	return float64(s.End.Millis()-s.Start.Millis()) / 1000
}

// ErrInvalidTiming reports a cue whose end precedes its start.
var ErrInvalidTiming = errors.New("cue ends before it starts")

const timingSeparator = "-->"

// ParseError locates a malformed cue.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("srt line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("srt line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads every cue from r. An empty input yields no segments and no error.
func Parse(r io.Reader) ([]Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		segments []Segment
		current  *Segment
		text     []string
		lineNo   int
		expect   = stateIndex
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(text, "\n")
		segments = append(segments, *current)
		current = nil
		text = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		switch expect {
		case stateIndex:
			if trimmed == "" {
				continue
			}
			current = &Segment{}
			if strings.Contains(trimmed, timingSeparator) {
				// Some tools omit the index line.
				if err := parseTiming(trimmed, current, lineNo); err != nil {
					return nil, err
				}
				current.Index = len(segments) + 1
				expect = stateText
				continue
			}
			index, err := strconv.Atoi(trimmed)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("expected cue index, got %q", trimmed)}
			}
			current.Index = index
			expect = stateTiming
		case stateTiming:
			if err := parseTiming(trimmed, current, lineNo); err != nil {
				return nil, err
			}
			expect = stateText
		case stateText:
			if trimmed == "" {
				flush()
				expect = stateIndex
				continue
			}
			text = append(text, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	if expect == stateTiming {
		return nil, &ParseError{Line: lineNo, Msg: "missing timing line"}
	}
	flush()
	return segments, nil
}

type parseState int

const (
	stateIndex parseState = iota
	stateTiming
	stateText
)

func parseTiming(line string, seg *Segment, lineNo int) error {
	startText, endText, ok := strings.Cut(line, timingSeparator)
	if !ok {
		return &ParseError{Line: lineNo, Msg: fmt.Sprintf("expected timing line, got %q", line)}
	}
	// Drop positional hints such as "X1:100 X2:200" after the end time.
	if fields := strings.Fields(endText); len(fields) > 0 {
		endText = fields[0]
	}
	start, err := ParseTimestamp(startText)
	if err != nil {
		return &ParseError{Line: lineNo, Msg: "start time", Err: err}
	}
	end, err := ParseTimestamp(endText)
	if err != nil {
		return &ParseError{Line: lineNo, Msg: "end time", Err: err}
	}
	if end.Before(start) {
		return &ParseError{Line: lineNo, Msg: fmt.Sprintf("%s --> %s", start, end), Err: ErrInvalidTiming}
	}
	seg.Start = start
	seg.End = end
	return nil
}

// Write renders segments to w, renumbering indices from 1. Blank lines inside
// text are dropped so the output stays parseable.
func Write(w io.Writer, segments []Segment) error {
	bw := bufio.NewWriter(w)
	for i, seg := range segments {
		if seg.End.Before(seg.Start) {
			return fmt.Errorf("segment %d: %w", i+1, ErrInvalidTiming)
		}
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(bw, "%d\n%s %s %s\n", i+1, seg.Start, timingSeparator, seg.End); err != nil {
			return err
		}
		for _, line := range textLines(seg.Text) {
			if _, err := bw.WriteString(line + "\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func textLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ReadFile parses the SRT file at path.
func ReadFile(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open srt: %w", err)
	}
	defer f.Close()
	segments, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return segments, nil
}

// WriteFile renders segments to path as UTF-8 using a temp file and rename.
func WriteFile(path string, segments []Segment) error {
	var buf bytes.Buffer
	if err := Write(&buf, segments); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}
