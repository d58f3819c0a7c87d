package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment overrides applied after the file is decoded.
const (
	EnvOutputDir = "MKVBATCH_OUTPUT_DIR"
	EnvVerbosity = "MKVBATCH_VERBOSITY"
)

func (c *Config) applyEnv() error {
	if value, ok := os.LookupEnv(EnvOutputDir); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = value
	}
	if value, ok := os.LookupEnv(EnvVerbosity); ok && strings.TrimSpace(value) != "" {
		level, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvVerbosity, value)
		}
		c.Output.Verbosity = level
	}
	return nil
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeExtract()
	c.normalizeNaming()
	c.normalizeOutput()
	c.normalizeLogging()
	return nil
}

// Normalize re-applies normalization after callers override fields, e.g.
// from command-line flags.
func (c *Config) Normalize() error {
	return c.normalize()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	} else {
		c.Paths.OutputDir = ""
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.MKVMerge = strings.TrimSpace(c.Tools.MKVMerge)
	if c.Tools.MKVMerge == "" {
		c.Tools.MKVMerge = defaultMKVMerge
	}
	c.Tools.MKVExtract = strings.TrimSpace(c.Tools.MKVExtract)
	if c.Tools.MKVExtract == "" {
		c.Tools.MKVExtract = defaultMKVExtract
	}
}

func (c *Config) normalizeExtract() {
	for _, field := range []*string{&c.Extract.Tracks, &c.Extract.Attachments, &c.Extract.Chapters, &c.Extract.Timecodes} {
		*field = strings.ToLower(strings.TrimSpace(*field))
		if *field == "" {
			*field = defaultSelector
		}
	}
}

func (c *Config) normalizeNaming() {
	defaults := []struct {
		field    *string
		fallback string
	}{
		{&c.Naming.TrackPattern, defaultTrackPattern},
		{&c.Naming.AttachmentPattern, defaultAttachmentPattern},
		{&c.Naming.ChapterPattern, defaultChapterPattern},
		{&c.Naming.TimecodePattern, defaultTimecodePattern},
	}
	for _, d := range defaults {
		if strings.TrimSpace(*d.field) == "" {
			*d.field = d.fallback
		}
	}
}

func (c *Config) normalizeOutput() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	switch c.Output.Format {
	case "":
		c.Output.Format = defaultOutputFormat
	case "yml":
		c.Output.Format = "yaml"
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	default:
		c.Logging.Level = level
	}
}
