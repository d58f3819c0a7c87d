package selection

import (
	"fmt"
	"strconv"
	"strings"

	"mkvbatch/internal/mkv"
)

const (
	KeywordAll   = "all"
	KeywordNone  = "none"
	KeywordFonts = "fonts"
)

// FontExtensions lists the attachment extensions matched by the fonts keyword.
var FontExtensions = []string{"ttf", "ttc", "otf", "fon"}

// UnsupportedTokenError reports a selector token the category does not understand.
type UnsupportedTokenError struct {
	Category string
	Token    string
}

func (e *UnsupportedTokenError) Error() string {
	return fmt.Sprintf("unsupported %s selector %q", e.Category, e.Token)
}

// Selectors is a parsed, normalized selector list.
type Selectors []string

// Parse splits a comma-delimited selector string into trimmed lower-case tokens.
func Parse(raw string) Selectors {
	var out Selectors
	for _, part := range strings.Split(raw, ",") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		out = append(out, token)
	}
	return out
}

// Merge concatenates selector lists, as when a flag is repeated.
func Merge(lists ...Selectors) Selectors {
	var out Selectors
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}

// Has reports whether the list contains token.
func (s Selectors) Has(token string) bool {
	for _, t := range s {
		if t == token {
			return true
		}
	}
	return false
}

// Empty reports whether the list selects nothing.
func (s Selectors) Empty() bool {
	if len(s) == 0 {
		return true
	}
	for _, t := range s {
		if t != KeywordNone {
			return false
		}
	}
	return true
}

func (s Selectors) String() string {
	return strings.Join(s, ",")
}

// SelectTracks marks the tracks matched by sel for payload extraction.
func SelectTracks(tracks []*mkv.Track, sel Selectors) (int, []error) {
	return selectTracks(tracks, sel, "track", func(t *mkv.Track) *mkv.ExtractionState { return &t.State })
}

// SelectTimecodes marks the tracks matched by sel for timecode extraction.
func SelectTimecodes(tracks []*mkv.Track, sel Selectors) (int, []error) {
	return selectTracks(tracks, sel, "timecode", func(t *mkv.Track) *mkv.ExtractionState { return &t.TimecodesState })
}

func selectTracks(tracks []*mkv.Track, sel Selectors, category string, state func(*mkv.Track) *mkv.ExtractionState) (int, []error) {
	if sel.Has(KeywordAll) {
		marked := 0
		for _, track := range tracks {
			if track == nil {
				continue
			}
			if state(track).Mark() {
				marked++
			}
		}
		return marked, unsupportedTrackTokens(sel, category)
	}
	if sel.Empty() {
		return 0, nil
	}

	var errs []error
	marked := 0
	for _, token := range sel {
		if token == KeywordNone {
			continue
		}
		match, ok := trackMatcher(token)
		if !ok {
			errs = append(errs, &UnsupportedTokenError{Category: category, Token: token})
			continue
		}
		for _, track := range tracks {
			if track == nil || !match(track) {
				continue
			}
			if state(track).Mark() {
				marked++
			}
		}
	}
	return marked, errs
}

func unsupportedTrackTokens(sel Selectors, category string) []error {
	var errs []error
	for _, token := range sel {
		if token == KeywordAll || token == KeywordNone {
			continue
		}
		if _, ok := trackMatcher(token); !ok {
			errs = append(errs, &UnsupportedTokenError{Category: category, Token: token})
		}
	}
	return errs
}

func trackMatcher(token string) (func(*mkv.Track) bool, bool) {
	if id, err := strconv.Atoi(token); err == nil {
		if id < 0 {
			return nil, false
		}
		return func(t *mkv.Track) bool { return t.ID == id }, true
	}
	if kind, ok := mkv.ParseTrackType(token); ok {
		return func(t *mkv.Track) bool { return t.Type == kind }, true
	}
	return nil, false
}

// SelectAttachments marks the attachments matched by sel.
func SelectAttachments(attachments []*mkv.Attachment, sel Selectors) (int, []error) {
	if sel.Has(KeywordAll) {
		marked := 0
		for _, att := range attachments {
			if att != nil && att.State.Mark() {
				marked++
			}
		}
		var errs []error
		for _, token := range sel {
			if token != KeywordAll && token != KeywordNone && token != KeywordFonts {
				errs = append(errs, &UnsupportedTokenError{Category: "attachment", Token: token})
			}
		}
		return marked, errs
	}
	if sel.Empty() {
		return 0, nil
	}

	var errs []error
	marked := 0
	for _, token := range sel {
		switch token {
		case KeywordNone:
		case KeywordFonts:
			for _, att := range attachments {
				if att == nil || !isFont(att) {
					continue
				}
				if att.State.Mark() {
					marked++
				}
			}
		default:
			errs = append(errs, &UnsupportedTokenError{Category: "attachment", Token: token})
		}
	}
	return marked, errs
}

func isFont(att *mkv.Attachment) bool {
	ext := strings.ToLower(att.Extension())
	for _, candidate := range FontExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
