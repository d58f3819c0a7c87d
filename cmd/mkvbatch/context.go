package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// logger builds the CLI logger for cfg with console output on w, falling
// back to console-only logging when the log file cannot be opened.
func (c *commandContext) logger(cfg *config.Config, w io.Writer) *slog.Logger {
	logger, err := logging.NewFromConfigWriter(cfg, w)
	if err == nil {
		return logger
	}
	consoleOnly := *cfg
	consoleOnly.Paths.LogDir = ""
	fallback, fallbackErr := logging.NewFromConfigWriter(&consoleOnly, w)
	if fallbackErr != nil {
		return logging.NewNop()
	}
	logging.WarnWithContext(fallback, "log file unavailable", "log_file_unavailable",
		logging.Error(err),
		logging.String(logging.FieldImpact, "logging to stderr only"),
		logging.String(logging.FieldErrorHint, "check paths.log_dir permissions"),
	)
	return fallback
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
