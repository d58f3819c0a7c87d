package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var titleCaser = cases.Title(language.Und)

// Title returns value in title case, e.g. "subtitles" -> "Subtitles".
func Title(value string) string {
	return titleCaser.String(strings.TrimSpace(value))
}

// LanguageName returns the English name of a Matroska language code such as
// "jpn" or "en-US". Undetermined or unknown codes are returned unchanged.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "und") {
		return code
	}
	if terminology, ok := bibliographicCodes[strings.ToLower(code)]; ok {
		code = terminology
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// bibliographicCodes maps ISO 639-2/B codes, which Matroska files commonly
// carry, onto their 639-2/T equivalents.
var bibliographicCodes = map[string]string{
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"bur": "mya",
	"chi": "zho",
	"cze": "ces",
	"dut": "nld",
	"fre": "fra",
	"geo": "kat",
	"ger": "deu",
	"gre": "ell",
	"ice": "isl",
	"mac": "mkd",
	"mao": "mri",
	"may": "msa",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"tib": "bod",
	"wel": "cym",
}

// Ternary returns a if cond is true, b otherwise.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
