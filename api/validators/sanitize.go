package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanitizer is implemented by request bodies that normalize their free-text fields.
// DecodeJSONBody calls Sanitize after decoding and before validation.
type Sanitizer interface {
	Sanitize()
}

// SanitizeString trims input, drops control characters, collapses whitespace runs to a single
// space and caps the result at maxLen runes. A non-positive maxLen means no cap.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if maxLen > 0 && utf8.RuneCountInString(out) > maxLen {
		out = string([]rune(out)[:maxLen])
	}
	return out
}

// SanitizeStringPtr sanitizes *input in place; nil is left alone.
func SanitizeStringPtr(input *string, maxLen int) {
	if input != nil {
		*input = SanitizeString(*input, maxLen)
	}
}
