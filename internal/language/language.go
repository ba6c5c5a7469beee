package language

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknown reports input that is neither a language tag nor a known English language name.
var ErrUnknown = errors.New("unknown language")

var (
	namesOnce sync.Once
	byName    map[string]language.Tag
)

func nameIndex() map[string]language.Tag {
	namesOnce.Do(func() {
		namer := display.English.Languages()
		tags := display.Supported.Tags()
		byName = make(map[string]language.Tag, len(tags))
		for _, tag := range tags {
			name := strings.ToLower(namer.Name(tag))
			if name == "" {
				continue
			}
			if _, exists := byName[name]; !exists {
				byName[name] = tag
			}
		}
	})
	return byName
}

// Parse resolves a BCP 47 tag, ISO 639 code, or English language name.
func Parse(code string) (language.Tag, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(code, "\u0000", ""))
	if trimmed == "" {
		return language.Und, fmt.Errorf("%w: empty", ErrUnknown)
	}
	if tag, err := language.Parse(trimmed); err == nil && tag != language.Und {
		return tag, nil
	}
	if tag, ok := nameIndex()[strings.ToLower(trimmed)]; ok {
		return tag, nil
	}
	return language.Und, fmt.Errorf("%w: %q", ErrUnknown, trimmed)
}

// Canonical returns the canonical BCP 47 form (e.g. "vi", "zh-TW") or an empty
// string when the input cannot be parsed.
func Canonical(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return ""
	}
	return tag.String()
}

// ToISO2 converts any recognized language code or name to ISO 639-1 (2-letter).
// Returns an empty string when the language has no 2-letter code.
func ToISO2(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// ToISO3 converts any recognized language code to ISO 639-2 (3-letter).
// Returns "und" for unrecognized input.
func ToISO3(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return "und"
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "und"
	}
	return base.ISO3()
}

// DisplayName returns the English name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	tag, err := Parse(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}

// ExtractFromTags extracts and normalizes the language from stream metadata tags.
// Checks common tag keys: language, LANGUAGE, Language, language_ietf, lang, LANG.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		value, ok := tags[key]
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
		if value == "" || strings.EqualFold(value, "und") {
			continue
		}
		if iso := ToISO2(value); iso != "" {
			return iso
		}
		return strings.ToLower(value)
	}
	return ""
}
