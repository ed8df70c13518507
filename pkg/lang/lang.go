// Package lang normalizes the language codes courses are tagged with.
package lang

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Default is used when a course does not name a language.
const Default = "en"

var errEmptyCode = errors.New("language code cannot be empty")

// Normalize parses a BCP 47 code and returns its canonical form, e.g.
// "PT_br" becomes "pt-BR".
func Normalize(code string) (string, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if trimmed == "" {
		return "", errEmptyCode
	}

	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q", code)
	}
	base, confidence := tag.Base()
	if confidence == language.No || base.String() == "und" {
		return "", fmt.Errorf("invalid language code %q", code)
	}
	return tag.String(), nil
}

// Name returns the English name of a language code, or the code itself when
// it cannot be parsed.
func Name(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// NormalizeList normalizes codes, dropping blanks and duplicates while
// keeping the order of first occurrence.
func NormalizeList(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(codes))
	result := make([]string, 0, len(codes))
	for _, raw := range codes {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		normalized, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result, nil
}
