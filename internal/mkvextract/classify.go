package mkvextract

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind classifies one line of mkvextract output.
type LineKind int

const (
	LineInfo LineKind = iota
	LineProgress
	LineError
	LineWarning
	LineTrack
	LineTimecodes
	LineAttachment
)

func (k LineKind) String() string {
	switch k {
	case LineProgress:
		return "progress"
	case LineError:
		return "error"
	case LineWarning:
		return "warning"
	case LineTrack:
		return "track"
	case LineTimecodes:
		return "timecodes"
	case LineAttachment:
		return "attachment"
	default:
		return "info"
	}
}

// Line is a classified output line. Fields beyond Kind and Text are only
// populated for the kinds that carry them.
type Line struct {
	Kind    LineKind
	Text    string
	Percent int
	Message string

	// Track and timecode identity.
	TrackID   int
	CodecID   string
	Container string

	// Attachment identity; AttachmentID is mkvextract's 1-based attachment number.
	AttachmentID int
	UID          uint64
	MIMEType     string
	Size         int64

	Path string
}

var (
	progressPattern   = regexp.MustCompile(`^(?:Progress:\s*|#GUI#progress\s+)(\d{1,3})%`)
	errorPattern      = regexp.MustCompile(`^(?:Error|#GUI#error):\s*(.*)$`)
	warningPattern    = regexp.MustCompile(`^(?:Warning|#GUI#warning):\s*(.*)$`)
	trackPattern      = regexp.MustCompile(`^Extracting track (\d+) with the CodecID '([^']*)' to the file '(.*)'\.(?:\s*Container format:\s*(.*))?$`)
	timecodesPattern  = regexp.MustCompile(`^Extracting (?:the )?(?:timestamps|timecodes) for track (\d+) to (?:the file )?'(.*)'\.?$`)
	attachmentPattern = regexp.MustCompile(`^The attachment #(\d+), ID (\d+), MIME type ([^,]*), size (\d+), is written to '(.*)'\.?$`)
)

// Classify parses one line of mkvextract output.
func Classify(raw string) Line {
	text := strings.TrimSpace(raw)
	line := Line{Kind: LineInfo, Text: text}
	if text == "" {
		return line
	}

	if m := progressPattern.FindStringSubmatch(text); m != nil {
		line.Kind = LineProgress
		line.Percent, _ = strconv.Atoi(m[1])
		return line
	}
	if m := errorPattern.FindStringSubmatch(text); m != nil {
		line.Kind = LineError
		line.Message = strings.TrimSpace(m[1])
		return line
	}
	if m := warningPattern.FindStringSubmatch(text); m != nil {
		line.Kind = LineWarning
		line.Message = strings.TrimSpace(m[1])
		return line
	}
	if m := trackPattern.FindStringSubmatch(text); m != nil {
		line.Kind = LineTrack
		line.TrackID, _ = strconv.Atoi(m[1])
		line.CodecID = m[2]
		line.Path = m[3]
		line.Container = strings.TrimSpace(m[4])
		return line
	}
	if m := timecodesPattern.FindStringSubmatch(text); m != nil {
		line.Kind = LineTimecodes
		line.TrackID, _ = strconv.Atoi(m[1])
		line.Path = m[2]
		return line
	}
	if m := attachmentPattern.FindStringSubmatch(text); m != nil {
		line.Kind = LineAttachment
		line.AttachmentID, _ = strconv.Atoi(m[1])
		line.UID, _ = strconv.ParseUint(m[2], 10, 64)
		line.MIMEType = strings.TrimSpace(m[3])
		line.Size, _ = strconv.ParseInt(m[4], 10, 64)
		line.Path = m[5]
		return line
	}
	return line
}
