package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// boxBorder pads the background box around the text, in pixels.
const boxBorder = 4

// writeFilterScript writes one text file per overlay plus the drawtext chain
// that references them, returning the script path.
func writeFilterScript(dir string, overlays []Overlay) (string, error) {
	filters := make([]string, 0, len(overlays))
	for i, overlay := range overlays {
		textPath := filepath.Join(dir, fmt.Sprintf("overlay_%04d.txt", i))
		if err := os.WriteFile(textPath, []byte(overlay.Text), 0o644); err != nil {
			return "", fmt.Errorf("write overlay text: %w", err)
		}
		filters = append(filters, drawtext(overlay, textPath))
	}
	scriptPath := filepath.Join(dir, "overlays.filter")
	if err := os.WriteFile(scriptPath, []byte(strings.Join(filters, ",\n")+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write filter script: %w", err)
	}
	return scriptPath, nil
}

// drawtext renders a single overlay as a drawtext filter.
func drawtext(o Overlay, textPath string) string {
	opts := []string{
		"font=" + quote(o.Style.Font),
		"textfile=" + quote(textPath),
		"fontsize=" + strconv.Itoa(o.Style.FontSize),
		"fontcolor=" + o.Style.Color,
		"box=1",
		"boxcolor=" + o.Style.BackgroundColor,
		"boxborderw=" + strconv.Itoa(boxBorder),
		"x=(w-text_w)/2",
		"y=" + formatNumber(o.Style.VerticalRatio) + "*h",
		fmt.Sprintf("enable='gte(t,%s)*lt(t,%s)'", formatSeconds(o.Start), formatSeconds(o.End())),
	}
	return "drawtext=" + strings.Join(opts, ":")
}

// quote wraps a filter option value in single quotes.
func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
