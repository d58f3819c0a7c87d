package selection

// ChapterType is a chapter output format.
type ChapterType string

const (
	ChapterXML    ChapterType = "xml"
	ChapterSimple ChapterType = "simple"
)

// Extension returns the file extension written for the chapter format.
func (c ChapterType) Extension() string {
	if c == ChapterSimple {
		return "txt"
	}
	return "xml"
}

// ParseChapterTypes resolves chapter format selectors. Unknown tokens are
// returned as errors while the recognized formats are still returned.
func ParseChapterTypes(sel Selectors) ([]ChapterType, []error) {
	var (
		types []ChapterType
		errs  []error
	)
	seen := make(map[ChapterType]struct{}, 2)
	for _, token := range sel {
		var kind ChapterType
		switch token {
		case KeywordNone:
			continue
		case string(ChapterXML):
			kind = ChapterXML
		case string(ChapterSimple):
			kind = ChapterSimple
		default:
			errs = append(errs, &UnsupportedTokenError{Category: "chapter", Token: token})
			continue
		}
		if _, ok := seen[kind]; ok {
			continue
		}
		seen[kind] = struct{}{}
		types = append(types, kind)
	}
	return types, errs
}
