package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mkvbatch/internal/batch"
	"mkvbatch/internal/config"
	"mkvbatch/internal/deps"
	"mkvbatch/internal/journal"
	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/mkvextract"
	"mkvbatch/internal/selection"
)

// exitStrict is the exit status of a --strict run with failed assets.
const exitStrict = 3

type extractOptions struct {
	tracks      []string
	attachments []string
	chapters    []string
	timecodes   []string

	trackPattern      string
	attachmentPattern string
	chapterPattern    string
	timecodePattern   string

	outputDir  string
	recursive  bool
	verbosity  int
	passthru   bool
	format     string
	parseFully bool
	fullRaw    bool
	strict     bool
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract the selected assets from Matroska files",
		Long: `Extract tracks, attachments, chapters, and timecodes from Matroska files.

Paths may name files or directories; directories are scanned for .mkv, .mka,
.mks, and .mk3d files (one level deep unless --recursive).

Selectors are comma separated and may be repeated:
  --tracks       all | none | <id> | video | audio | subtitles
  --timecodes    same vocabulary as --tracks
  --attachments  all | none | fonts
  --chapters     xml | simple | none

Pattern variables: $f input base name, $i track ID or attachment UID,
$t track type, $n name, $l language, $v timecode format version.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := opts.apply(cmd, base)
			if err != nil {
				return err
			}
			return runExtract(cmd, ctx, cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.tracks, "tracks", nil, "Track selectors")
	flags.StringArrayVar(&opts.attachments, "attachments", nil, "Attachment selectors")
	flags.StringArrayVar(&opts.chapters, "chapters", nil, "Chapter formats")
	flags.StringArrayVar(&opts.timecodes, "timecodes", nil, "Timecode selectors")
	flags.StringVar(&opts.trackPattern, "track-pattern", "", "Filename pattern for tracks")
	flags.StringVar(&opts.attachmentPattern, "attachment-pattern", "", "Filename pattern for attachments")
	flags.StringVar(&opts.chapterPattern, "chapter-pattern", "", "Filename pattern for chapters")
	flags.StringVar(&opts.timecodePattern, "timecode-pattern", "", "Filename pattern for timecodes")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "Output directory (default: next to each input)")
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "Scan directories recursively")
	flags.IntVarP(&opts.verbosity, "verbosity", "v", 1, "Verbosity 0-4")
	flags.BoolVar(&opts.passthru, "passthru", false, "Write the annotated metadata to stdout")
	flags.StringVar(&opts.format, "format", "", "Passthru format: json or yaml")
	flags.BoolVar(&opts.parseFully, "parse-fully", false, "Pass --parse-fully to mkvextract")
	flags.BoolVar(&opts.fullRaw, "fullraw", false, "Extract raw track data without container headers")
	flags.BoolVar(&opts.strict, "strict", false, "Exit with status 3 when any asset fails")
	return cmd
}

// apply layers the changed flags over a copy of base.
func (o *extractOptions) apply(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	cfgVal := *base
	cfg := &cfgVal
	changed := cmd.Flags().Changed

	selectors := []struct {
		flag  string
		value []string
		dst   *string
	}{
		{"tracks", o.tracks, &cfg.Extract.Tracks},
		{"attachments", o.attachments, &cfg.Extract.Attachments},
		{"chapters", o.chapters, &cfg.Extract.Chapters},
		{"timecodes", o.timecodes, &cfg.Extract.Timecodes},
	}
	for _, s := range selectors {
		if changed(s.flag) {
			*s.dst = strings.Join(s.value, ",")
		}
	}

	patterns := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"track-pattern", o.trackPattern, &cfg.Naming.TrackPattern},
		{"attachment-pattern", o.attachmentPattern, &cfg.Naming.AttachmentPattern},
		{"chapter-pattern", o.chapterPattern, &cfg.Naming.ChapterPattern},
		{"timecode-pattern", o.timecodePattern, &cfg.Naming.TimecodePattern},
		{"output-dir", o.outputDir, &cfg.Paths.OutputDir},
		{"format", o.format, &cfg.Output.Format},
	}
	for _, p := range patterns {
		if changed(p.flag) {
			*p.dst = p.value
		}
	}

	if changed("recursive") {
		cfg.Extract.Recursive = o.recursive
	}
	if changed("verbosity") {
		cfg.Output.Verbosity = o.verbosity
	}
	if changed("passthru") {
		cfg.Output.Passthru = o.passthru
	}
	if changed("parse-fully") {
		cfg.Extract.ParseFully = o.parseFully
	}
	if changed("fullraw") {
		cfg.Extract.FullRaw = o.fullRaw
	}
	if changed("strict") {
		cfg.Output.Strict = o.strict
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExtract(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, paths []string) error {
	logger := ctx.logger(cfg, cmd.ErrOrStderr())

	statuses, err := deps.Require(deps.ToolRequirements(cfg.Tools.MKVMerge, cfg.Tools.MKVExtract))
	if err != nil {
		return err
	}
	mkvmergePath, mkvextractPath := statuses[0].Path, statuses[1].Path

	extractor, err := mkvextract.New(mkvextractPath, mkvextract.Settings{
		OutputDir: cfg.Paths.OutputDir,
		Patterns: mkvextract.Patterns{
			Track:      cfg.Naming.TrackPattern,
			Timecode:   cfg.Naming.TimecodePattern,
			Attachment: cfg.Naming.AttachmentPattern,
			Chapter:    cfg.Naming.ChapterPattern,
		},
		ParseFully: cfg.Extract.ParseFully,
		FullRaw:    cfg.Extract.FullRaw,
		Verbosity:  cfg.Output.Verbosity,
	}, mkvextract.WithLogger(logger))
	if err != nil {
		return err
	}

	opts := []batch.Option{
		batch.WithLogger(logger),
		batch.WithLockPath(cfg.LockPath()),
		batch.WithProgress(batch.NewProgress(cmd.ErrOrStderr(), cfg.Output.Verbosity, logger)),
	}
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.JournalPath())
		if err != nil {
			logging.WarnWithContext(logger, "journal unavailable", "journal_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "outcomes of this run are not journaled"),
				logging.String(logging.FieldErrorHint, "check paths.state_dir or set [journal] enabled = false"),
			)
		} else {
			defer store.Close()
			opts = append(opts, batch.WithRecorder(store))
		}
	}

	orch, err := batch.New(mkv.NewProvider(mkvmergePath), extractor, opts...)
	if err != nil {
		return err
	}

	report, runErr := orch.Run(cmd.Context(), batch.Request{
		Inputs:      paths,
		Recursive:   cfg.Extract.Recursive,
		Tracks:      selection.Parse(cfg.Extract.Tracks),
		Attachments: selection.Parse(cfg.Extract.Attachments),
		Chapters:    selection.Parse(cfg.Extract.Chapters),
		Timecodes:   selection.Parse(cfg.Extract.Timecodes),
		Args:        commandLine(cmd, paths),
	})
	if report == nil {
		return runErr
	}

	if err := renderReport(cmd, cfg, report); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if cfg.Output.Strict && report.HasFailures() {
		return &exitError{
			code: exitStrict,
			err:  fmt.Errorf("%d assets failed, %d files could not be identified", report.Failed(), report.FailedFiles()),
		}
	}
	return nil
}

// commandLine reconstructs the invocation for the journal from the flags
// that were set explicitly.
func commandLine(cmd *cobra.Command, args []string) string {
	parts := []string{cmd.CommandPath()}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		parts = append(parts, "--"+f.Name+"="+f.Value.String())
	})
	return strings.Join(append(parts, args...), " ")
}
