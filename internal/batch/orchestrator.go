package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mkvbatch/internal/journal"
	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/mkvextract"
	"mkvbatch/internal/selection"
)

// ErrBatchLocked is returned when another batch holds the lock file.
var ErrBatchLocked = errors.New("another mkvbatch run is in progress")

// Driver runs the per-category extractions for one file.
// *mkvextract.Extractor satisfies it.
type Driver interface {
	Tracks(ctx context.Context, meta *mkv.FileMetadata) mkvextract.Result
	Attachments(ctx context.Context, meta *mkv.FileMetadata) mkvextract.Result
	Chapters(ctx context.Context, meta *mkv.FileMetadata, types []selection.ChapterType) []mkvextract.ChapterResult
	Timecodes(ctx context.Context, meta *mkv.FileMetadata) mkvextract.Result
	SetProgress(fn func(mkvextract.ProgressUpdate))
}

// Recorder persists run outcomes. *journal.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, runID string, startedAt time.Time, args string) error
	Record(ctx context.Context, runID string, entries []journal.Entry) error
	FinishRun(ctx context.Context, runID string, summary journal.Summary) error
}

// Request describes one batch.
type Request struct {
	Inputs      []string
	Recursive   bool
	Tracks      selection.Selectors
	Attachments selection.Selectors
	Chapters    selection.Selectors
	Timecodes   selection.Selectors
	// Args is stored with the journal run, typically the command line.
	Args string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.NewComponentLogger(logger, "batch")
	}
}

// WithRecorder enables outcome persistence.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.progress = p
		}
	}
}

// WithLockPath guards runs with an advisory lock on path.
func WithLockPath(path string) Option {
	return func(o *Orchestrator) {
		o.lockPath = strings.TrimSpace(path)
	}
}

// Orchestrator drives identification, selection, and extraction over a
// batch of files.
type Orchestrator struct {
	identifier mkv.Identifier
	driver     Driver
	recorder   Recorder
	progress   Progress
	logger     *slog.Logger
	lockPath   string
	now        func() time.Time
}

// New constructs an Orchestrator.
func New(identifier mkv.Identifier, driver Driver, opts ...Option) (*Orchestrator, error) {
	if identifier == nil {
		return nil, errors.New("batch: metadata identifier required")
	}
	if driver == nil {
		return nil, errors.New("batch: extraction driver required")
	}
	o := &Orchestrator{
		identifier: identifier,
		driver:     driver,
		progress:   nopProgress{},
		logger:     logging.NewComponentLogger(nil, "batch"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run processes every input file. The returned report is non-nil whenever
// processing started; the error is non-nil for fatal conditions and when ctx
// was cancelled mid-batch.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	files, err := ResolveInputs(req.Inputs, req.Recursive)
	if err != nil {
		return nil, err
	}

	unlock, err := o.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
		Files:     make([]*FileReport, 0, len(files)),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, o.logger)

	errs := newSelectionErrors(logger)
	chapterTypes, chapterErrs := selection.ParseChapterTypes(req.Chapters)
	errs.add(chapterErrs)

	recorder := o.recorder
	if recorder != nil {
		if err := recorder.BeginRun(ctx, report.RunID, report.StartedAt, req.Args); err != nil {
			logging.WarnWithContext(logger, "journal unavailable", "journal_begin_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "outcomes of this run are not journaled"),
				logging.String(logging.FieldErrorHint, "check state_dir permissions or disable [journal]"),
			)
			recorder = nil
		}
	}

	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.Int("file_count", len(files)),
		logging.String("tracks", req.Tracks.String()),
		logging.String("attachments", req.Attachments.String()),
		logging.String("chapters", req.Chapters.String()),
		logging.String("timecodes", req.Timecodes.String()),
	)

	o.driver.SetProgress(o.progress.Update)
	defer o.driver.SetProgress(nil)
	o.progress.Start(len(files))

	for i, path := range files {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}
		o.progress.BeginFile(i, path)
		fr := o.processFile(ctx, logger, path, req, chapterTypes, errs)
		o.progress.EndFile()
		report.Files = append(report.Files, fr)

		if recorder != nil {
			// Journal writes outlive an interrupt so partial runs stay visible.
			entries := journalEntries(report.RunID, fr, o.now())
			if err := recorder.Record(context.WithoutCancel(ctx), report.RunID, entries); err != nil {
				logger.Warn("journal record failed",
					logging.Error(err),
					logging.String(logging.FieldFile, path),
					logging.String(logging.FieldEventType, "journal_record_failed"),
				)
			}
		}
		if fr.Interrupted {
			report.Interrupted = true
			break
		}
	}
	o.progress.Finish()

	report.FinishedAt = o.now()
	report.SelectionErrors = errs.list
	if recorder != nil {
		if err := recorder.FinishRun(context.WithoutCancel(ctx), report.RunID, report.summary()); err != nil {
			logger.Warn("journal finish failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "journal_finish_failed"),
			)
		}
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "batch_finished"),
		logging.Int("file_count", len(report.Files)),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
		logging.Int("failed_files", report.FailedFiles()),
		logging.Duration("duration", report.Duration()),
	}
	if report.Interrupted {
		logger.Warn("batch interrupted", logging.Args(append(attrs,
			logging.String(logging.FieldImpact, "remaining files were not processed"),
		)...)...)
		return report, fmt.Errorf("batch interrupted: %w", context.Cause(ctx))
	}
	logger.Info("batch finished", logging.Args(attrs...)...)
	return report, nil
}

// processFile identifies, selects, and extracts one file. Drivers run in
// the fixed order tracks, attachments, chapters, timecodes.
func (o *Orchestrator) processFile(ctx context.Context, logger *slog.Logger, path string, req Request, chapterTypes []selection.ChapterType, errs *selectionErrors) *FileReport {
	started := o.now()
	fr := &FileReport{Path: path}
	defer func() { fr.Duration = o.now().Sub(started) }()
	logger = logger.With(logging.String(logging.FieldFile, path))

	meta, err := o.identifier.Identify(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			fr.Interrupted = true
			return fr
		}
		fr.Err = err
		logging.WarnWithContext(logger, "identification failed", "identify_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the file opens with mkvmerge -J"),
		)
		return fr
	}
	fr.Metadata = meta

	_, trackErrs := selection.SelectTracks(meta.Tracks, req.Tracks)
	errs.add(trackErrs)
	_, attachmentErrs := selection.SelectAttachments(meta.Attachments, req.Attachments)
	errs.add(attachmentErrs)
	_, timecodeErrs := selection.SelectTimecodes(meta.Tracks, req.Timecodes)
	errs.add(timecodeErrs)

	logger.Debug("file identified",
		logging.String("container", meta.Container),
		logging.Int("track_count", len(meta.Tracks)),
		logging.Int("attachment_count", len(meta.Attachments)),
		logging.Int("chapter_entries", meta.ChapterEntries),
	)

	steps := []func() bool{
		func() bool { return fr.addResult(o.driver.Tracks(ctx, meta)) },
		func() bool { return fr.addResult(o.driver.Attachments(ctx, meta)) },
		func() bool {
			if len(chapterTypes) == 0 {
				fr.Chapters = []mkvextract.ChapterResult{{Outcome: mkvextract.ChapterNotRequested}}
				return true
			}
			results := o.driver.Chapters(ctx, meta, chapterTypes)
			fr.Chapters = results
			return len(results) == 0 || results[len(results)-1].Err == nil
		},
		func() bool { return fr.addResult(o.driver.Timecodes(ctx, meta)) },
	}
	for _, step := range steps {
		if !step() {
			fr.Interrupted = true
			return fr
		}
	}

	logger.Info("file processed",
		logging.String(logging.FieldEventType, "file_processed"),
		logging.String("status", string(fr.Status())),
		logging.Int("succeeded", fr.Succeeded()),
		logging.Int("failed", fr.Failed()),
	)
	return fr
}

// addResult appends r and reports whether processing may continue.
func (f *FileReport) addResult(r mkvextract.Result) bool {
	f.Results = append(f.Results, r)
	return r.Err == nil
}

func (o *Orchestrator) acquireLock() (func(), error) {
	if o.lockPath == "" {
		return func() {}, nil
	}
	lock := flock.New(o.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrBatchLocked, o.lockPath)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("failed to release batch lock",
				logging.Error(err),
				logging.String("lock", o.lockPath),
			)
		}
	}, nil
}

// selectionErrors keeps each unsupported token once across files.
type selectionErrors struct {
	logger *slog.Logger
	seen   map[string]struct{}
	list   []error
}

func newSelectionErrors(logger *slog.Logger) *selectionErrors {
	return &selectionErrors{logger: logger, seen: make(map[string]struct{})}
}

func (s *selectionErrors) add(errs []error) {
	for _, err := range errs {
		key := err.Error()
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.list = append(s.list, err)
		attrs := []logging.Attr{
			logging.Error(err),
			logging.String(logging.FieldEventType, "selector_unsupported"),
			logging.String(logging.FieldImpact, "token ignored; other selectors still apply"),
		}
		var tokenErr *selection.UnsupportedTokenError
		if errors.As(err, &tokenErr) {
			attrs = append(attrs,
				logging.String(logging.FieldCategory, tokenErr.Category),
				logging.String("token", tokenErr.Token),
			)
		}
		logging.WarnWithContext(s.logger, "unsupported selector", "selector_unsupported", attrs...)
	}
}
