package mkvextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/naming"
)

// Category names an extraction sub-operation.
type Category string

const (
	CategoryTracks      Category = "tracks"
	CategoryAttachments Category = "attachments"
	CategoryChapters    Category = "chapters"
	CategoryTimecodes   Category = "timecodes"
)

// Verbosity levels shared with the batch orchestrator.
const (
	VerbositySilent  = 0
	VerbositySummary = 1
	VerbosityTables  = 2
	VerbosityChatter = 3
	VerbosityFull    = 4
)

// tailSize is the number of trailing tool lines kept per invocation.
const tailSize = 20

// Patterns holds the filename pattern for each category.
type Patterns struct {
	Track      string
	Timecode   string
	Attachment string
	Chapter    string
}

// DefaultPatterns returns the built-in filename patterns.
func DefaultPatterns() Patterns {
	return Patterns{
		Track:      naming.DefaultTrackPattern,
		Timecode:   naming.DefaultTimecodePattern,
		Attachment: naming.DefaultAttachmentPattern,
		Chapter:    naming.DefaultChapterPattern,
	}
}

func (p Patterns) withDefaults() Patterns {
	d := DefaultPatterns()
	if strings.TrimSpace(p.Track) == "" {
		p.Track = d.Track
	}
	if strings.TrimSpace(p.Timecode) == "" {
		p.Timecode = d.Timecode
	}
	if strings.TrimSpace(p.Attachment) == "" {
		p.Attachment = d.Attachment
	}
	if strings.TrimSpace(p.Chapter) == "" {
		p.Chapter = d.Chapter
	}
	return p
}

// Settings controls how mkvextract is invoked.
type Settings struct {
	// OutputDir overrides the default of writing next to the input file.
	OutputDir  string
	Patterns   Patterns
	ParseFully bool
	FullRaw    bool
	Verbosity  int
}

// ProgressUpdate reports the percentage of the running invocation.
type ProgressUpdate struct {
	Category Category
	Percent  int
}

// Result summarizes one driver invocation.
type Result struct {
	Category  Category
	Marked    int
	Succeeded int
	Failed    int
	Invoked   bool
	Args      []string
	ExitCode  int
	Errors    []string
	Warnings  []string
	// Tail holds the last lines the tool printed, for diagnostics.
	Tail []string
	// Err is set when the invocation was interrupted; asset state is left as is.
	Err error
}

// Skipped reports whether the driver had nothing to extract.
func (r Result) Skipped() bool {
	return !r.Invoked
}

// Option configures the extractor.
type Option func(*Extractor)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *Extractor) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithLogger sets the logger used for tool chatter and outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logging.NewComponentLogger(logger, "mkvextract")
	}
}

// WithProgress registers a callback for progress lines.
func WithProgress(fn func(ProgressUpdate)) Option {
	return func(e *Extractor) {
		e.progress = fn
	}
}

// Extractor runs the per-category extraction drivers.
type Extractor struct {
	binary   string
	settings Settings
	exec     Executor
	logger   *slog.Logger
	progress func(ProgressUpdate)
}

// New constructs an Extractor for the given mkvextract binary.
func New(binary string, settings Settings, opts ...Option) (*Extractor, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("mkvextract binary required")
	}
	settings.Patterns = settings.Patterns.withDefaults()
	e := &Extractor{
		binary:   binary,
		settings: settings,
		exec:     commandExecutor{},
		logger:   logging.NewComponentLogger(nil, "mkvextract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetProgress replaces the progress callback, e.g. when the inner progress
// indicator is re-scoped per invocation.
func (e *Extractor) SetProgress(fn func(ProgressUpdate)) {
	e.progress = fn
}

// outputDir resolves the directory assets of meta are written to.
func (e *Extractor) outputDir(meta *mkv.FileMetadata) string {
	return naming.OutputDir(e.settings.OutputDir, meta.Path)
}

// commonFlags returns the options shared by every extraction mode.
func (e *Extractor) commonFlags() []string {
	flags := []string{"--ui-language", "en_US"}
	if e.settings.ParseFully {
		flags = append(flags, "--parse-fully")
	}
	if e.settings.Verbosity >= VerbosityFull {
		flags = append(flags, "--verbose")
	}
	return flags
}

// target is one asset inside a batched invocation.
type target struct {
	label string
	spec  string
	state *mkv.ExtractionState
	path  *string

	trackID int
	attID   int
	uid     uint64
}

func (t *target) succeed() {
	t.state.Succeed()
}

func (t *target) fail() {
	if t.state.Fail() {
		*t.path = ""
	}
}

// batch is the mutable state of one invocation while its output streams in.
type batch struct {
	category Category
	targets  []*target
	result   Result
	tail     []string
	errored  bool
	// started bounds the output modification time accepted by settle.
	started time.Time
	// completeOnProgress marks every Marked target Succeeded when the tool
	// reports 100%. Attachments complete one "written to" line at a time.
	completeOnProgress bool
}

func newBatch(category Category, targets []*target, completeOnProgress bool) *batch {
	return &batch{
		category:           category,
		targets:            targets,
		result:             Result{Category: category, Marked: len(targets)},
		completeOnProgress: completeOnProgress,
	}
}

func (b *batch) remember(text string) {
	if text == "" {
		return
	}
	b.tail = append(b.tail, text)
	if len(b.tail) > tailSize {
		b.tail = b.tail[len(b.tail)-tailSize:]
	}
}

func (b *batch) failMarked() {
	for _, t := range b.targets {
		t.fail()
	}
}

func (b *batch) succeedMarked() {
	for _, t := range b.targets {
		t.succeed()
	}
}

func (b *batch) finish() Result {
	for _, t := range b.targets {
		switch *t.state {
		case mkv.StateSucceeded:
			b.result.Succeeded++
		case mkv.StateFailed:
			b.result.Failed++
		}
	}
	b.result.Tail = append([]string(nil), b.tail...)
	return b.result
}

// lineHandler consumes category-specific lines.
type lineHandler func(logger *slog.Logger, b *batch, line Line)

// run executes one batched invocation and dispatches each output line.
// handle receives lines the shared rules do not consume.
func (e *Extractor) run(ctx context.Context, meta *mkv.FileMetadata, b *batch, mode string, extra []string, handle lineHandler) Result {
	logger := e.logger.With(
		logging.String(logging.FieldFile, meta.Path),
		logging.String(logging.FieldCategory, string(b.category)),
	)

	if len(b.targets) == 0 {
		logger.Info("nothing to extract", logging.String(logging.FieldEventType, "extract_skipped"))
		return b.finish()
	}

	for _, t := range b.targets {
		if err := os.MkdirAll(filepath.Dir(*t.path), 0o755); err != nil {
			b.result.Errors = append(b.result.Errors, fmt.Sprintf("create output directory: %v", err))
			b.failMarked()
			logger.Warn("cannot create output directory",
				logging.Error(err),
				logging.String(logging.FieldEventType, "extract_failed"),
			)
			return b.finish()
		}
	}

	args := []string{meta.Path, mode}
	args = append(args, e.commonFlags()...)
	args = append(args, extra...)
	for _, t := range b.targets {
		args = append(args, t.spec)
	}
	b.result.Invoked = true
	b.result.Args = args
	b.started = time.Now()

	logger.Debug("executing mkvextract",
		logging.String("command", e.binary+" "+strings.Join(args, " ")),
		logging.Int("asset_count", len(b.targets)),
	)

	err := e.exec.Run(ctx, e.binary, args, func(raw string) {
		line := Classify(raw)
		b.remember(line.Text)
		e.dispatch(logger, b, line, handle)
	})
	e.settle(ctx, logger, b, err)
	return b.finish()
}

func (e *Extractor) dispatch(logger *slog.Logger, b *batch, line Line, handle lineHandler) {
	switch line.Kind {
	case LineProgress:
		if e.progress != nil {
			e.progress(ProgressUpdate{Category: b.category, Percent: line.Percent})
		}
		if b.completeOnProgress && line.Percent >= 100 && !b.errored {
			b.succeedMarked()
		}
	case LineError:
		b.errored = true
		b.result.Errors = append(b.result.Errors, line.Message)
		b.failMarked()
		logger.Warn("mkvextract reported an error",
			logging.String("error_message", line.Message),
			logging.String(logging.FieldEventType, "extract_error"),
		)
	case LineWarning:
		b.result.Warnings = append(b.result.Warnings, line.Message)
		e.chatter(logger, "mkvextract warning", line)
	default:
		if handle != nil {
			handle(logger, b, line)
			return
		}
		e.chatter(logger, "mkvextract output", line)
	}
}

// chatter logs tool output that does not change state.
func (e *Extractor) chatter(logger *slog.Logger, msg string, line Line) {
	if line.Text == "" {
		return
	}
	level := slog.LevelDebug
	if e.settings.Verbosity >= VerbosityChatter {
		level = slog.LevelInfo
	}
	logger.Log(context.Background(), level, msg, logging.String("output", line.Text))
}

// settle applies the process exit status to targets still Marked.
func (e *Extractor) settle(ctx context.Context, logger *slog.Logger, b *batch, err error) {
	if err == nil {
		b.result.ExitCode = 0
	} else {
		b.result.ExitCode = exitCode(err)
	}

	switch {
	case err != nil && ctx.Err() != nil:
		b.result.Err = ctx.Err()
		return
	case err == nil || b.result.ExitCode == 1:
		// Exit status 1 means warnings only. Anything still Marked never
		// reached 100% or its "written to" line; accept output files this
		// invocation wrote.
		for _, t := range b.targets {
			if *t.state != mkv.StateMarked {
				continue
			}
			if b.writtenSinceStart(*t.path) {
				t.succeed()
				continue
			}
			t.fail()
			b.result.Errors = append(b.result.Errors, fmt.Sprintf("%s: no output produced", t.label))
		}
	default:
		if hasMarked(b.targets) {
			b.result.Errors = append(b.result.Errors, fmt.Sprintf("mkvextract failed: %v", err))
		}
		b.failMarked()
		logger.Warn("mkvextract exited abnormally",
			logging.Error(err),
			logging.String(logging.FieldEventType, "extract_failed"),
			logging.String(logging.FieldErrorHint, "rerun with --verbosity 4 to see the tool output"),
		)
	}
}

// writtenSinceStart reports whether path is a regular file modified after the
// invocation started. The start is truncated to whole seconds for filesystems
// with coarse timestamps.
func (b *batch) writtenSinceStart(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return !info.ModTime().Before(b.started.Truncate(time.Second))
}

func hasMarked(targets []*target) bool {
	for _, t := range targets {
		if *t.state == mkv.StateMarked {
			return true
		}
	}
	return false
}
