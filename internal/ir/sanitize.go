package ir

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sanitize strips raw control characters (0x00-0x1F) and returns the NFC
// form of what remains.
//
// Surfaces render captured strings as plain text, but other call sites embed
// related fields into HTML; those must still escape separately.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	stripped := strings.Map(func(r rune) rune {
		if r >= 0 && r <= 0x1f {
			return -1
		}
		return r
	}, s)
	return norm.NFC.String(stripped)
}

// SanitizeValue stringifies an arbitrary value and sanitizes the result.
// A nil value yields the empty string.
func SanitizeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return Sanitize(val)
	case error:
		return Sanitize(val.Error())
	case fmt.Stringer:
		return Sanitize(val.String())
	default:
		return Sanitize(fmt.Sprint(val))
	}
}

// StringPtr returns a pointer to a sanitized copy of s.
func StringPtr(s string) *string {
	v := Sanitize(s)
	return &v
}
