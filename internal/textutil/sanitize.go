package textutil

import (
	"strings"
	"unicode"
)

// segmentReplacer maps characters that are unsafe inside a single path
// segment. Path separators become dashes so a track name such as "AC3/DTS"
// cannot escape the output directory.
var segmentReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeSegment makes value safe to embed in one path segment. Control
// characters are dropped and surrounding whitespace is trimmed.
func SanitizeSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	return strings.TrimSpace(segmentReplacer.Replace(value))
}
