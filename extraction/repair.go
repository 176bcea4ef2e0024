package extraction

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// RepairJSON recovers a usable document from a sloppy paste of a broker export.
// It tries the input as-is, then with trailing commas removed, then falls back to the
// first balanced top-level object that parses on its own.
func RepairJSON(text string) (string, error) {
	text = strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if gjson.Valid(text) {
		return text, nil
	}

	cleaned := trailingComma.ReplaceAllString(text, "$1")
	if gjson.Valid(cleaned) {
		return cleaned, nil
	}

	if obj, ok := firstObject(cleaned); ok {
		return obj, nil
	}
	return "", ErrUnrepairableJSON
}

// firstObject scans for balanced braces outside string literals and returns the first
// complete object that is valid JSON.
func firstObject(text string) (string, bool) {
	depth, start := 0, -1
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			if depth == 0 {
				start = i
			}
			depth++
		case ch == '}' && depth > 0:
			depth--
			if depth == 0 && start >= 0 {
				candidate := text[start : i+1]
				if gjson.Valid(candidate) {
					return candidate, true
				}
				start = -1
			}
		}
	}
	return "", false
}
