package srt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timestamp is a cue boundary with millisecond granularity.
type Timestamp struct {
	Hours        int
	Minutes      int
	Seconds      int
	Milliseconds int
}

// TimeToSeconds converts ts to fractional seconds:
// hours*3600 + minutes*60 + seconds + milliseconds/1000.
func TimeToSeconds(ts Timestamp) float64 {
	return float64(ts.Hours*3600+ts.Minutes*60+ts.Seconds) + float64(ts.Milliseconds)/1000
}

// Millis returns the timestamp as whole milliseconds.
func (ts Timestamp) Millis() int64 {
	return int64(ts.Hours)*3_600_000 + int64(ts.Minutes)*60_000 + int64(ts.Seconds)*1000 + int64(ts.Milliseconds)
}

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.Millis() < other.Millis()
}

// String formats the timestamp as HH:MM:SS,mmm.
func (ts Timestamp) String() string {
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ts.Hours, ts.Minutes, ts.Seconds, ts.Milliseconds)
}

// FromMillis builds a normalized timestamp from whole milliseconds.
// Negative input clamps to zero.
func FromMillis(ms int64) Timestamp {
	if ms < 0 {
		ms = 0
	}
	return Timestamp{
		Hours:        int(ms / 3_600_000),
		Minutes:      int(ms / 60_000 % 60),
		Seconds:      int(ms / 1000 % 60),
		Milliseconds: int(ms % 1000),
	}
}

// FromSeconds builds a timestamp from fractional seconds, rounded to the
// nearest millisecond.
func FromSeconds(seconds float64) Timestamp {
	if math.IsNaN(seconds) || seconds <= 0 {
		return Timestamp{}
	}
	return FromMillis(int64(math.Round(seconds * 1000)))
}

// ParseTimestamp parses HH:MM:SS,mmm (or HH:MM:SS.mmm). Fractions shorter
// than three digits are scaled (",5" is 500ms).
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timestamp{}, fmt.Errorf("empty timestamp")
	}
	normalized := strings.ReplaceAll(value, ".", ",")
	clock, fraction, ok := strings.Cut(normalized, ",")
	if !ok || fraction == "" || len(fraction) > 3 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := atoiNonNegative(hms[0])
	minutes, errM := atoiNonNegative(hms[1])
	seconds, errS := atoiNonNegative(hms[2])
	millis, errMS := atoiNonNegative(fraction)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
	}
	if minutes > 59 || seconds > 59 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: minutes and seconds must be below 60", value)
	}
	for i := len(fraction); i < 3; i++ {
		millis *= 10
	}
	return Timestamp{Hours: hours, Minutes: minutes, Seconds: seconds, Milliseconds: millis}, nil
}

func atoiNonNegative(value string) (int, error) {
	if value == "" || strings.ContainsAny(value, "+- ") {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	return strconv.Atoi(value)
}
