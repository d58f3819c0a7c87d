package batch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mkvbatch/internal/journal"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/mkvextract"
)

// FileStatus summarizes a file's outcome.
type FileStatus string

const (
	FileCompleted   FileStatus = "completed"
	FilePartial     FileStatus = "partial"
	FileFailed      FileStatus = "failed"
	FileSkipped     FileStatus = "skipped"
	FileInterrupted FileStatus = "interrupted"
)

// FileReport collects everything that happened to one input file.
type FileReport struct {
	Path string
	// Metadata is nil when identification failed.
	Metadata *mkv.FileMetadata
	// Err holds the identification failure, if any.
	Err         error
	Results     []mkvextract.Result
	Chapters    []mkvextract.ChapterResult
	Interrupted bool
	Duration    time.Duration
}

// Succeeded counts assets that reached the Succeeded state plus written
// chapter files.
func (f *FileReport) Succeeded() int {
	n := 0
	for _, r := range f.Results {
		n += r.Succeeded
	}
	for _, c := range f.Chapters {
		if c.Outcome == mkvextract.ChapterWritten {
			n++
		}
	}
	return n
}

// Failed counts assets that reached the Failed state plus failed chapter
// formats.
func (f *FileReport) Failed() int {
	n := 0
	for _, r := range f.Results {
		n += r.Failed
	}
	for _, c := range f.Chapters {
		if c.Outcome == mkvextract.ChapterFailed {
			n++
		}
	}
	return n
}

// Result returns the driver result for category, if the driver ran.
func (f *FileReport) Result(category mkvextract.Category) (mkvextract.Result, bool) {
	for _, r := range f.Results {
		if r.Category == category {
			return r, true
		}
	}
	return mkvextract.Result{}, false
}

// Status classifies the file outcome.
func (f *FileReport) Status() FileStatus {
	if f.Err != nil {
		return FileFailed
	}
	if f.Interrupted {
		return FileInterrupted
	}
	succeeded, failed := f.Succeeded(), f.Failed()
	switch {
	case failed > 0 && succeeded > 0:
		return FilePartial
	case failed > 0:
		return FileFailed
	case succeeded == 0:
		return FileSkipped
	default:
		return FileCompleted
	}
}

// Report is the outcome of one batch run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []*FileReport
	// SelectionErrors lists each unsupported selector token once.
	SelectionErrors []error
	Interrupted     bool
}

// Succeeded totals succeeded assets across files.
func (r *Report) Succeeded() int {
	n := 0
	for _, f := range r.Files {
		n += f.Succeeded()
	}
	return n
}

// Failed totals failed assets across files.
func (r *Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		n += f.Failed()
	}
	return n
}

// FailedFiles counts files that could not be identified.
func (r *Report) FailedFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// HasFailures reports whether any asset or file failed.
func (r *Report) HasFailures() bool {
	return r.Failed() > 0 || r.FailedFiles() > 0
}

// Metadata returns the annotated metadata of every identified file, in
// processing order.
func (r *Report) Metadata() []*mkv.FileMetadata {
	out := make([]*mkv.FileMetadata, 0, len(r.Files))
	for _, f := range r.Files {
		if f.Metadata != nil {
			out = append(out, f.Metadata)
		}
	}
	return out
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) status() journal.RunStatus {
	if r.Interrupted {
		return journal.RunInterrupted
	}
	if len(r.Files) > 0 && r.FailedFiles() == len(r.Files) {
		return journal.RunFailed
	}
	return journal.RunCompleted
}

func (r *Report) summary() journal.Summary {
	return journal.Summary{
		Status:    r.status(),
		Files:     len(r.Files),
		Succeeded: r.Succeeded(),
		Failed:    r.Failed(),
	}
}

// journalEntries flattens the selected assets of a file into journal rows.
func journalEntries(runID string, f *FileReport, recordedAt time.Time) []journal.Entry {
	entry := func(category, asset, state, path, errText string) journal.Entry {
		return journal.Entry{
			RunID:      runID,
			File:       f.Path,
			Category:   category,
			Asset:      asset,
			State:      state,
			Path:       path,
			Error:      errText,
			RecordedAt: recordedAt,
		}
	}

	if f.Err != nil {
		return []journal.Entry{entry("identify", "", mkv.StateFailed.String(), "", f.Err.Error())}
	}
	meta := f.Metadata
	if meta == nil {
		return nil
	}

	var entries []journal.Entry
	failure := func(category mkvextract.Category, state mkv.ExtractionState) string {
		if state != mkv.StateFailed {
			return ""
		}
		if r, ok := f.Result(category); ok {
			return resultError(r)
		}
		return ""
	}
	for _, t := range meta.Tracks {
		if t == nil || t.State.IsZero() {
			continue
		}
		entries = append(entries, entry(string(mkvextract.CategoryTracks), strconv.Itoa(t.ID),
			t.State.String(), t.Path, failure(mkvextract.CategoryTracks, t.State)))
	}
	for _, a := range meta.Attachments {
		if a == nil || a.State.IsZero() {
			continue
		}
		asset := a.FileName
		if asset == "" {
			asset = strconv.Itoa(a.ID)
		}
		entries = append(entries, entry(string(mkvextract.CategoryAttachments), asset,
			a.State.String(), a.Path, failure(mkvextract.CategoryAttachments, a.State)))
	}
	for _, c := range f.Chapters {
		if c.Outcome == mkvextract.ChapterNotRequested {
			continue
		}
		entries = append(entries, entry(string(mkvextract.CategoryChapters), string(c.Type),
			string(c.Outcome), c.Path, c.Error))
	}
	for _, t := range meta.Tracks {
		if t == nil || t.TimecodesState.IsZero() {
			continue
		}
		entries = append(entries, entry(string(mkvextract.CategoryTimecodes), strconv.Itoa(t.ID),
			t.TimecodesState.String(), t.TimecodesPath, failure(mkvextract.CategoryTimecodes, t.TimecodesState)))
	}
	return entries
}

func resultError(r mkvextract.Result) string {
	if len(r.Errors) > 0 {
		return strings.Join(r.Errors, "; ")
	}
	if r.ExitCode > 1 {
		return fmt.Sprintf("mkvextract exited with status %d", r.ExitCode)
	}
	return "no output produced"
}
