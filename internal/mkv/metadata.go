package mkv

import (
	"path/filepath"
	"strings"
)

// TrackType is the stream kind reported by mkvmerge.
type TrackType string

const (
	TrackVideo     TrackType = "video"
	TrackAudio     TrackType = "audio"
	TrackSubtitles TrackType = "subtitles"
)

// TrackTypes lists the track types in display order.
var TrackTypes = []TrackType{TrackVideo, TrackAudio, TrackSubtitles}

// ParseTrackType returns the track type named by value.
func ParseTrackType(value string) (TrackType, bool) {
	switch TrackType(strings.ToLower(strings.TrimSpace(value))) {
	case TrackVideo:
		return TrackVideo, true
	case TrackAudio:
		return TrackAudio, true
	case TrackSubtitles:
		return TrackSubtitles, true
	default:
		return "", false
	}
}

// FileMetadata describes one Matroska file and the extraction state of its assets.
type FileMetadata struct {
	Path           string        `json:"path" yaml:"path"`
	Title          string        `json:"title,omitempty" yaml:"title,omitempty"`
	Container      string        `json:"container,omitempty" yaml:"container,omitempty"`
	ChapterEntries int           `json:"chapter_entries" yaml:"chapter_entries"`
	Tracks         []*Track      `json:"tracks" yaml:"tracks"`
	Attachments    []*Attachment `json:"attachments" yaml:"attachments"`
}

// Track is one audio, video, or subtitle stream.
type Track struct {
	ID        int       `json:"id" yaml:"id"`
	Type      TrackType `json:"type" yaml:"type"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Language  string    `json:"language,omitempty" yaml:"language,omitempty"`
	Codec     string    `json:"codec,omitempty" yaml:"codec,omitempty"`
	CodecID   string    `json:"codec_id,omitempty" yaml:"codec_id,omitempty"`
	Extension string    `json:"extension,omitempty" yaml:"extension,omitempty"`

	State          ExtractionState `json:"extraction_state,omitempty" yaml:"extraction_state,omitempty"`
	Path           string          `json:"extraction_path,omitempty" yaml:"extraction_path,omitempty"`
	TimecodesState ExtractionState `json:"timecodes_state,omitempty" yaml:"timecodes_state,omitempty"`
	TimecodesPath  string          `json:"timecodes_path,omitempty" yaml:"timecodes_path,omitempty"`
}

// Extractable reports whether mkvextract can write the track payload to a file.
func (t *Track) Extractable() bool {
	return t != nil && t.Extension != ""
}

// Attachment is a file embedded in the container, typically a font.
type Attachment struct {
	ID          int    `json:"id" yaml:"id"`
	UID         uint64 `json:"uid" yaml:"uid"`
	FileName    string `json:"file_name" yaml:"file_name"`
	MIMEType    string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Size        int64  `json:"size" yaml:"size"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	State ExtractionState `json:"extraction_state,omitempty" yaml:"extraction_state,omitempty"`
	Path  string          `json:"extraction_path,omitempty" yaml:"extraction_path,omitempty"`
}

// Extension returns the stored filename's extension without the dot, preserving case.
func (a *Attachment) Extension() string {
	if a == nil {
		return ""
	}
	return strings.TrimPrefix(filepath.Ext(a.FileName), ".")
}

// BaseName returns the stored filename without its extension.
func (a *Attachment) BaseName() string {
	if a == nil {
		return ""
	}
	return strings.TrimSuffix(a.FileName, filepath.Ext(a.FileName))
}

// BaseName returns the input filename without directory or extension.
func (m *FileMetadata) BaseName() string {
	base := filepath.Base(m.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TrackByID returns the track with the given ID.
func (m *FileMetadata) TrackByID(id int) *Track {
	for _, track := range m.Tracks {
		if track != nil && track.ID == id {
			return track
		}
	}
	return nil
}

// TracksByType returns the tracks of the given type in file order.
func (m *FileMetadata) TracksByType(kind TrackType) []*Track {
	var out []*Track
	for _, track := range m.Tracks {
		if track != nil && track.Type == kind {
			out = append(out, track)
		}
	}
	return out
}

// AttachmentsByExtension returns attachments whose filename extension matches
// any of exts, compared case-insensitively and without the leading dot.
func (m *FileMetadata) AttachmentsByExtension(exts ...string) []*Attachment {
	want := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		want[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	var out []*Attachment
	for _, att := range m.Attachments {
		if att == nil {
			continue
		}
		if _, ok := want[strings.ToLower(att.Extension())]; ok {
			out = append(out, att)
		}
	}
	return out
}

// AttachmentByUID returns the attachment with the given UID.
func (m *FileMetadata) AttachmentByUID(uid uint64) *Attachment {
	for _, att := range m.Attachments {
		if att != nil && att.UID == uid {
			return att
		}
	}
	return nil
}

// AttachmentByID returns the attachment with the given mkvextract attachment ID.
func (m *FileMetadata) AttachmentByID(id int) *Attachment {
	for _, att := range m.Attachments {
		if att != nil && att.ID == id {
			return att
		}
	}
	return nil
}
