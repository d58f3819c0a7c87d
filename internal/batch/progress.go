package batch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkvextract"
)

// Progress receives batch progress: one outer step per file and the
// percentage of each driver invocation inside it.
type Progress interface {
	Start(total int)
	BeginFile(index int, path string)
	Update(update mkvextract.ProgressUpdate)
	EndFile()
	Finish()
}

// NewProgress picks the progress reporter for w. Bars are drawn only on a
// terminal at verbosity 1 or above; other writers get sampled log lines.
func NewProgress(w io.Writer, verbosity int, logger *slog.Logger) Progress {
	if verbosity < mkvextract.VerbositySummary {
		return nopProgress{}
	}
	if isTerminal(w) {
		return &barProgress{w: w}
	}
	return &logProgress{
		logger:  logging.NewComponentLogger(logger, "batch"),
		sampler: logging.NewProgressSampler(25),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type nopProgress struct{}

func (nopProgress) Start(int)                        {}
func (nopProgress) BeginFile(int, string)            {}
func (nopProgress) Update(mkvextract.ProgressUpdate) {}
func (nopProgress) EndFile()                         {}
func (nopProgress) Finish()                          {}

// barProgress draws an outer bar over files and a transient inner bar per
// driver invocation on the same terminal line.
type barProgress struct {
	w        io.Writer
	total    int
	index    int
	name     string
	category mkvextract.Category
	files    *progressbar.ProgressBar
	inner    *progressbar.ProgressBar
}

func (b *barProgress) Start(total int) {
	b.total = total
	b.files = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(b.w) }),
	)
}

func (b *barProgress) BeginFile(index int, path string) {
	b.closeInner()
	b.index = index
	b.name = filepath.Base(path)
	b.category = ""
}

func (b *barProgress) Update(update mkvextract.ProgressUpdate) {
	if b.inner == nil || update.Category != b.category {
		b.closeInner()
		b.category = update.Category
		b.inner = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription(fmt.Sprintf("[%d/%d] %s %s", b.index+1, b.total, b.name, update.Category)),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = b.inner.Set(update.Percent)
}

func (b *barProgress) EndFile() {
	b.closeInner()
	if b.files != nil {
		_ = b.files.Add(1)
	}
}

func (b *barProgress) Finish() {
	b.closeInner()
	if b.files != nil {
		_ = b.files.Finish()
	}
}

func (b *barProgress) closeInner() {
	if b.inner == nil {
		return
	}
	_ = b.inner.Clear()
	b.inner = nil
}

// logProgress replaces bars with sampled log lines when output is not a
// terminal.
type logProgress struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   int
	index   int
	path    string
}

func (l *logProgress) Start(total int) {
	l.total = total
}

func (l *logProgress) BeginFile(index int, path string) {
	l.index = index
	l.path = path
	l.sampler.Reset()
}

func (l *logProgress) Update(update mkvextract.ProgressUpdate) {
	if !l.sampler.ShouldLog(update.Percent, string(update.Category)) {
		return
	}
	l.logger.Info("extraction progress",
		logging.String(logging.FieldEventType, "extract_progress"),
		logging.String(logging.FieldFile, l.path),
		logging.String(logging.FieldCategory, string(update.Category)),
		logging.Int("percent", update.Percent),
		logging.String("file_position", fmt.Sprintf("%d/%d", l.index+1, l.total)),
	)
}

func (l *logProgress) EndFile() {}

func (l *logProgress) Finish() {}
