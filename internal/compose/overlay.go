package compose

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"subtitler/internal/config"
	"subtitler/internal/srt"
)

// glyphWidthRatio approximates the advance of a monospaced glyph relative to
// the font size.
const glyphWidthRatio = 0.6

// Style controls how overlays are drawn.
type Style struct {
	Font            string
	FontSize        int
	Color           string
	BackgroundColor string
	VerticalRatio   float64
	WidthRatio      float64
}

// StyleFromConfig copies the compositor style settings.
func StyleFromConfig(c config.Compositor) Style {
	return Style{
		Font:            c.Font,
		FontSize:        c.FontSize,
		Color:           c.Color,
		BackgroundColor: c.BackgroundColor,
		VerticalRatio:   c.VerticalRatio,
		WidthRatio:      c.WidthRatio,
	}
}

// Overlay is one positioned, timed text clip.
type Overlay struct {
	Text     string
	Start    float64
	Duration float64
	// Y is the top edge in pixels. Overlays are always centred horizontally.
	Y        float64
	MaxWidth float64
	Style    Style
}

// End returns the first instant the overlay is no longer visible.
func (o Overlay) End() float64 {
	return o.Start + o.Duration
}

// BuildOverlays maps segments onto overlays for a width x height frame.
func BuildOverlays(segments []srt.Segment, width, height int, style Style) []Overlay {
	maxWidth := float64(width) * style.WidthRatio
	y := float64(height) * style.VerticalRatio
	overlays := make([]Overlay, 0, len(segments))
	for _, seg := range segments {
		duration := seg.Duration()
		if duration <= 0 {
			continue
		}
		text := Wrap(seg.Text, maxColumns(maxWidth, style.FontSize))
		if strings.TrimSpace(text) == "" {
			continue
		}
		overlays = append(overlays, Overlay{
			Text:     text,
			Start:    srt.TimeToSeconds(seg.Start),
			Duration: duration,
			Y:        y,
			MaxWidth: maxWidth,
			Style:    style,
		})
	}
	return overlays
}

func maxColumns(maxWidth float64, fontSize int) int {
	if fontSize <= 0 {
		return 0
	}
	cols := int(math.Floor(maxWidth / (glyphWidthRatio * float64(fontSize))))
	if cols < 1 {
		return 1
	}
	return cols
}

// Wrap breaks text so no line exceeds cols display columns. Existing line
// breaks are kept; words longer than a line are split. cols <= 0 disables
// wrapping.
func Wrap(text string, cols int) string {
	if cols <= 0 {
		return text
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapLine(paragraph, cols)...)
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, cols int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	var (
		lines   []string
		current strings.Builder
		width   int
	)
	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			width = 0
		}
	}
	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)
		for wordWidth > cols {
			flush()
			head := runewidth.Truncate(word, cols, "")
			if head == "" {
				// A single wide rune wider than cols still has to go somewhere.
				head = string([]rune(word)[:1])
			}
			lines = append(lines, head)
			word = word[len(head):]
			wordWidth = runewidth.StringWidth(word)
		}
		if word == "" {
			continue
		}
		switch {
		case width == 0:
			current.WriteString(word)
			width = wordWidth
		case width+1+wordWidth <= cols:
			current.WriteByte(' ')
			current.WriteString(word)
			width += 1 + wordWidth
		default:
			flush()
			current.WriteString(word)
			width = wordWidth
		}
	}
	flush()
	return lines
}
