package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mkvbatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Output.Verbosity = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSelectors overrides the default extraction selectors.
func WithSelectors(tracks, attachments, chapters, timecodes string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extract.Tracks = tracks
		b.cfg.Extract.Attachments = attachments
		b.cfg.Extract.Chapters = chapters
		b.cfg.Extract.Timecodes = timecodes
	}
}

// WithJournal toggles the extraction journal.
func WithJournal(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = enabled
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, mkvmerge and mkvextract are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"mkvmerge", "mkvextract"}
		}
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir(b), name), "exit 0\n")
		}
		prependPath(b)
	}
}

// WithStubScript installs a stub executable whose shell body is script.
func WithStubScript(name, script string) ConfigOption {
	return func(b *configBuilder) {
		WriteScript(b.t, filepath.Join(binDir(b), name), script)
		prependPath(b)
	}
}

func binDir(b *configBuilder) string {
	dir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	return dir
}

func prependPath(b *configBuilder) {
	dir := binDir(b)
	current := os.Getenv("PATH")
	if parts := filepath.SplitList(current); len(parts) > 0 && parts[0] == dir {
		return
	}
	b.t.Setenv("PATH", dir+string(os.PathListSeparator)+current)
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
