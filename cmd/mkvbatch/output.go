package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mkvbatch/internal/batch"
	"mkvbatch/internal/config"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/mkvextract"
	"mkvbatch/internal/textutil"
)

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeMetadata emits the annotated metadata sequence in format.
func writeMetadata(w io.Writer, format string, metas []*mkv.FileMetadata) error {
	if metas == nil {
		metas = []*mkv.FileMetadata{}
	}
	switch format {
	case "yaml":
		return writeYAML(w, metas)
	default:
		return writeJSON(w, metas)
	}
}

// renderReport prints the outcome of a batch according to verbosity and
// passthru: passthru owns stdout, so the summary moves to stderr.
func renderReport(cmd *cobra.Command, cfg *config.Config, report *batch.Report) error {
	verbosity := cfg.Output.Verbosity
	summaryOut := cmd.OutOrStdout()
	if cfg.Output.Passthru {
		if err := writeMetadata(cmd.OutOrStdout(), cfg.Output.Format, report.Metadata()); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
		summaryOut = cmd.ErrOrStderr()
	} else if verbosity >= mkvextract.VerbosityTables {
		for _, fr := range report.Files {
			fmt.Fprintln(summaryOut, renderFileReport(fr))
		}
	}
	if verbosity >= mkvextract.VerbositySummary {
		fmt.Fprintln(summaryOut, summaryLine(report))
	}
	return nil
}

func summaryLine(report *batch.Report) string {
	var b strings.Builder
	files := len(report.Files)
	fmt.Fprintf(&b, "%s %d %s in %s: %d succeeded, %d failed",
		textutil.Ternary(report.Interrupted, "Interrupted after", "Processed"),
		files, textutil.Ternary(files == 1, "file", "files"),
		report.Duration().Round(time.Millisecond),
		report.Succeeded(), report.Failed(),
	)
	if n := report.FailedFiles(); n > 0 {
		fmt.Fprintf(&b, ", %d %s could not be identified", n, textutil.Ternary(n == 1, "file", "files"))
	}
	if n := len(report.SelectionErrors); n > 0 {
		fmt.Fprintf(&b, ", %d unsupported %s ignored", n, textutil.Ternary(n == 1, "selector", "selectors"))
	}
	if report.RunID != "" {
		fmt.Fprintf(&b, " (run %s)", shortRunID(report.RunID))
	}
	return b.String()
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderFileReport renders one file as a header line plus an asset table.
func renderFileReport(fr *batch.FileReport) string {
	header := fmt.Sprintf("%s [%s]", filepath.Base(fr.Path), fr.Status())
	if fr.Err != nil {
		return header + "\n  " + fr.Err.Error()
	}
	rows := assetRows(fr)
	if len(rows) == 0 {
		return header + "\n  nothing selected"
	}
	return tableSpec{
		title:   header,
		headers: []string{"Category", "Asset", "Details", "State", "Output"},
		rows:    rows,
		footer:  []string{"", "", "", fmt.Sprintf("%d succeeded, %d failed", fr.Succeeded(), fr.Failed())},
		right:   []int{1},
	}.render()
}

func assetRows(fr *batch.FileReport) [][]string {
	meta := fr.Metadata
	if meta == nil {
		return nil
	}
	var rows [][]string
	for _, t := range meta.Tracks {
		if t == nil || t.State.IsZero() {
			continue
		}
		rows = append(rows, []string{"Track", strconv.Itoa(t.ID), trackDetails(t), t.State.String(), dash(t.Path)})
	}
	for _, a := range meta.Attachments {
		if a == nil || a.State.IsZero() {
			continue
		}
		details := fmt.Sprintf("%s, %s", a.FileName, humanize.Bytes(uint64(max(a.Size, 0))))
		rows = append(rows, []string{"Attachment", strconv.Itoa(a.ID), details, a.State.String(), dash(a.Path)})
	}
	for _, c := range fr.Chapters {
		if c.Outcome == mkvextract.ChapterNotRequested {
			continue
		}
		details := textutil.Ternary(c.Chapters > 0, fmt.Sprintf("%d chapters", c.Chapters), c.Error)
		rows = append(rows, []string{"Chapters", string(c.Type), dash(details), string(c.Outcome), dash(c.Path)})
	}
	for _, t := range meta.Tracks {
		if t == nil || t.TimecodesState.IsZero() {
			continue
		}
		rows = append(rows, []string{"Timecodes", strconv.Itoa(t.ID), "v2", t.TimecodesState.String(), dash(t.TimecodesPath)})
	}
	return rows
}

func trackDetails(t *mkv.Track) string {
	parts := []string{textutil.Title(string(t.Type))}
	if lang := textutil.LanguageName(t.Language); lang != "" && lang != "und" {
		parts = append(parts, lang)
	}
	parts = append(parts, textutil.Ternary(t.Codec != "", t.Codec, t.CodecID))
	if !t.Extractable() {
		parts = append(parts, "not extractable")
	}
	return strings.Join(parts, " · ")
}

func dash(value string) string {
	return textutil.Ternary(strings.TrimSpace(value) == "", "-", value)
}
