package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}

// SanitizeLabel cleans an imported dimension value before it is stored and
// later rendered as a graph node label. Markup is stripped, entities the
// policy escapes are restored, and surrounding whitespace is trimmed.
func SanitizeLabel(s string) string {
	cleaned := strictHTMLPolicy.Sanitize(StripUnprintable(s))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// SanitizeOptionalLabel applies SanitizeLabel and maps blank values to nil.
func SanitizeOptionalLabel(s string) *string {
	cleaned := SanitizeLabel(s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
