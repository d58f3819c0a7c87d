package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNaming() error {
	patterns := []struct {
		key   string
		value string
	}{
		{"naming.track_pattern", c.Naming.TrackPattern},
		{"naming.attachment_pattern", c.Naming.AttachmentPattern},
		{"naming.chapter_pattern", c.Naming.ChapterPattern},
		{"naming.timecode_pattern", c.Naming.TimecodePattern},
	}
	for _, p := range patterns {
		if strings.ContainsAny(p.value, `/\`) {
			return fmt.Errorf("%s must not contain path separators (got %q)", p.key, p.value)
		}
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Verbosity < 0 || c.Output.Verbosity > maxVerbosity {
		return fmt.Errorf("output.verbosity must be between 0 and %d (got %d)", maxVerbosity, c.Output.Verbosity)
	}
	switch c.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("output.format must be json or yaml (got %q)", c.Output.Format)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
