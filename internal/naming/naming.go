// Package naming expands output filename patterns into concrete paths.
//
// Patterns are plain text containing the variables $f (input basename),
// $i (track ID or attachment UID), $t (track type), $n (name), $l (language),
// and $v (timecode format tag). Expansion is a single literal pass: values
// are never re-expanded and no character in a pattern has regex meaning.
package naming

import (
	"path/filepath"
	"strconv"
	"strings"

	"mkvbatch/internal/mkv"
	"mkvbatch/internal/textutil"
)

// Pattern variables.
const (
	VarFile     = "$f"
	VarID       = "$i"
	VarType     = "$t"
	VarName     = "$n"
	VarLanguage = "$l"
	VarVersion  = "$v"
)

// TimecodeVersion is the timecode format mkvextract writes.
const TimecodeVersion = "v2"

// Default patterns per category.
const (
	DefaultTrackPattern      = "$f_$i"
	DefaultTimecodePattern   = "$f_$i_timecodes_$v"
	DefaultAttachmentPattern = "$n"
	DefaultChapterPattern    = "$f_chapters"
)

// AttachmentDirSuffix is appended to the input basename to form the
// directory attachments are written into.
const AttachmentDirSuffix = "_Attachments"

// Bindings maps pattern variables to their values. Missing variables expand
// to the empty string.
type Bindings map[string]string

// Expand replaces every variable in pattern with its bound value.
func Expand(pattern string, b Bindings) string {
	pairs := make([]string, 0, 12)
	for _, variable := range []string{VarFile, VarID, VarType, VarName, VarLanguage, VarVersion} {
		pairs = append(pairs, variable, b[variable])
	}
	return strings.NewReplacer(pairs...).Replace(pattern)
}

// Resolve expands pattern, appends ext (when non-empty), and joins the result to dir.
func Resolve(dir, pattern string, b Bindings, ext string) string {
	name := Expand(pattern, b)
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	return filepath.Join(dir, name)
}

// OutputDir returns the configured output directory, or the directory holding
// inputPath when none is configured.
func OutputDir(configured, inputPath string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	return filepath.Dir(inputPath)
}

// AttachmentDir returns the directory attachments of meta are written to. The
// basename is sanitized the same way as $f.
func AttachmentDir(outputDir string, meta *mkv.FileMetadata) string {
	return filepath.Join(outputDir, fileBinding(meta)+AttachmentDirSuffix)
}

func fileBinding(meta *mkv.FileMetadata) string {
	return textutil.SanitizeSegment(meta.BaseName())
}

// TrackBindings returns the variables available to track patterns.
func TrackBindings(meta *mkv.FileMetadata, track *mkv.Track) Bindings {
	return Bindings{
		VarFile:     fileBinding(meta),
		VarID:       strconv.Itoa(track.ID),
		VarType:     string(track.Type),
		VarName:     textutil.SanitizeSegment(track.Name),
		VarLanguage: textutil.SanitizeSegment(track.Language),
	}
}

// TimecodeBindings returns the variables available to timecode patterns.
func TimecodeBindings(meta *mkv.FileMetadata, track *mkv.Track) Bindings {
	b := TrackBindings(meta, track)
	b[VarVersion] = TimecodeVersion
	return b
}

// AttachmentBindings returns the variables available to attachment patterns.
func AttachmentBindings(meta *mkv.FileMetadata, att *mkv.Attachment) Bindings {
	return Bindings{
		VarFile: fileBinding(meta),
		VarID:   strconv.FormatUint(att.UID, 10),
		VarName: textutil.SanitizeSegment(att.BaseName()),
	}
}

// ChapterBindings returns the variables available to chapter patterns.
func ChapterBindings(meta *mkv.FileMetadata) Bindings {
	return Bindings{
		VarFile: fileBinding(meta),
		VarName: textutil.SanitizeSegment(meta.Title),
	}
}
