package mkvextract

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/naming"
	"mkvbatch/internal/selection"
)

// ChapterOutcome is the result of one chapter format request.
type ChapterOutcome string

const (
	// ChapterNotRequested means no chapter format was selected.
	ChapterNotRequested ChapterOutcome = "not_requested"
	// ChapterWritten means the chapter file was written.
	ChapterWritten ChapterOutcome = "written"
	// ChapterEmpty means mkvextract produced no recognizable chapters.
	ChapterEmpty ChapterOutcome = "empty"
	// ChapterNone means the file carries no chapters; the tool was not run.
	ChapterNone ChapterOutcome = "none"
	// ChapterFailed means the tool terminated abnormally or produced invalid output.
	ChapterFailed ChapterOutcome = "failed"
)

// ChapterResult describes one chapter format extraction.
type ChapterResult struct {
	Type     selection.ChapterType
	Outcome  ChapterOutcome
	Path     string
	Chapters int
	Args     []string
	ExitCode int
	Error    string
	Tail     []string
	Err      error
}

var simpleChapterPattern = regexp.MustCompile(`^CHAPTER\d+(?:NAME)?=`)

type chapterDocument struct {
	XMLName  xml.Name `xml:"Chapters"`
	Editions []struct {
		Atoms []struct {
			Start string `xml:"ChapterTimeStart"`
		} `xml:"ChapterAtom"`
	} `xml:"EditionEntry"`
}

// Chapters extracts the file's chapters once per requested format.
func (e *Extractor) Chapters(ctx context.Context, meta *mkv.FileMetadata, types []selection.ChapterType) []ChapterResult {
	results := make([]ChapterResult, 0, len(types))
	for _, kind := range types {
		result := e.chapter(ctx, meta, kind)
		results = append(results, result)
		if result.Err != nil {
			break
		}
	}
	return results
}

func (e *Extractor) chapter(ctx context.Context, meta *mkv.FileMetadata, kind selection.ChapterType) ChapterResult {
	logger := e.logger.With(
		logging.String(logging.FieldFile, meta.Path),
		logging.String(logging.FieldCategory, string(CategoryChapters)),
		logging.String("chapter_type", string(kind)),
	)
	result := ChapterResult{Type: kind}

	if meta.ChapterEntries == 0 {
		result.Outcome = ChapterNone
		logger.Info("file has no chapters", logging.String(logging.FieldEventType, "chapters_absent"))
		return result
	}

	args := []string{"chapters", meta.Path}
	args = append(args, e.commonFlags()...)
	if kind == selection.ChapterSimple {
		args = append(args, "--simple")
	}
	result.Args = args

	var (
		lines  []string
		errs   []string
		tail   = newBatch(CategoryChapters, nil, false)
		xmlIdx = -1
	)
	err := e.exec.Run(ctx, e.binary, args, func(raw string) {
		line := Classify(raw)
		tail.remember(line.Text)
		switch line.Kind {
		case LineError:
			errs = append(errs, line.Message)
		case LineProgress:
		case LineWarning:
			e.chatter(logger, "mkvextract warning", line)
		default:
			text := strings.TrimPrefix(raw, "\ufeff")
			if xmlIdx < 0 && strings.HasPrefix(strings.TrimSpace(text), "<?xml") {
				xmlIdx = len(lines)
			}
			lines = append(lines, text)
		}
	})
	result.Tail = tail.tail
	if err != nil {
		result.ExitCode = exitCode(err)
	}

	switch {
	case err != nil && ctx.Err() != nil:
		result.Err = ctx.Err()
		return result
	case len(errs) > 0 || (err != nil && result.ExitCode != 1):
		result.Outcome = ChapterFailed
		if len(errs) > 0 {
			result.Error = strings.Join(errs, "; ")
		} else {
			result.Error = fmt.Sprintf("mkvextract failed: %v", err)
		}
		logger.Warn("chapter extraction terminated abnormally",
			logging.String("error_message", result.Error),
			logging.String(logging.FieldEventType, "chapters_failed"),
		)
		return result
	}

	dir := e.outputDir(meta)
	path := naming.Resolve(dir, e.settings.Patterns.Chapter, naming.ChapterBindings(meta), kind.Extension())

	var (
		content string
		count   int
	)
	switch {
	case xmlIdx >= 0:
		content = strings.Join(lines[xmlIdx:], "\n") + "\n"
		var doc chapterDocument
		if decodeErr := xml.Unmarshal([]byte(content), &doc); decodeErr != nil {
			result.Outcome = ChapterFailed
			result.Error = fmt.Sprintf("invalid chapter XML: %v", decodeErr)
			logger.Warn("chapter XML could not be parsed",
				logging.Error(decodeErr),
				logging.String(logging.FieldEventType, "chapters_failed"),
			)
			return result
		}
		for _, edition := range doc.Editions {
			count += len(edition.Atoms)
		}
	default:
		var kept []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || !simpleChapterPattern.MatchString(trimmed) {
				continue
			}
			kept = append(kept, trimmed)
			if !strings.Contains(trimmed[:strings.Index(trimmed, "=")], "NAME") {
				count++
			}
		}
		if len(kept) == 0 {
			result.Outcome = ChapterEmpty
			logger.Info("mkvextract returned no chapters",
				logging.String(logging.FieldEventType, "chapters_empty"),
				logging.Int("output_lines", len(lines)),
			)
			return result
		}
		content = strings.Join(kept, "\n") + "\n"
	}

	if writeErr := writeChapterFile(path, content); writeErr != nil {
		result.Outcome = ChapterFailed
		result.Error = writeErr.Error()
		logger.Warn("chapter file could not be written",
			logging.Error(writeErr),
			logging.String(logging.FieldEventType, "chapters_failed"),
		)
		return result
	}
	result.Outcome = ChapterWritten
	result.Path = path
	result.Chapters = count
	logger.Info("chapters extracted",
		logging.String(logging.FieldEventType, "chapters_written"),
		logging.String("output_path", path),
		logging.Int("chapter_count", count),
	)
	return result
}

func writeChapterFile(path, content string) error {
	if path == "" {
		return errors.New("chapter output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write chapters: %w", err)
	}
	return nil
}
