package jsonapi

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// camelCase converts a kebab-case wire name to its camelCase in-memory form:
// every hyphen-separated segment after the first is capitalized and the
// segments are concatenated, so "first-name" becomes "firstName".
// Capitalization is Unicode-aware; "über-name" becomes "überName". A name
// without hyphens is returned unchanged.
func camelCase(s string) string {
	if !strings.ContainsRune(s, '-') {
		return s
	}

	segments := strings.Split(s, "-")
	var sb strings.Builder
	sb.WriteString(segments[0])
	for _, seg := range segments[1:] {
		if seg == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(seg)
		sb.WriteRune(unicode.ToUpper(first))
		sb.WriteString(seg[size:])
	}
	return sb.String()
}
