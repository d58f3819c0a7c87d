package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mkvbatch/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := ParseLevel(opts.Level)

	writer, err := openWriters(
		defaultSlice(opts.OutputPaths, []string{"stderr"}),
		opts.ErrorOutputPaths,
	)
	if err != nil {
		return nil, err
	}

	handler, err := newHandler(opts.Format, writer, level, opts.Development || level <= slog.LevelDebug)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewFromConfig builds the CLI logger: the configured format on stderr, teed
// with JSON lines in <log_dir>/mkvbatch.log.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	return NewFromConfigWriter(cfg, os.Stderr)
}

// NewFromConfigWriter is NewFromConfig with the console output sent to w.
// The console level follows ConsoleLevel; the log file keeps the configured
// level.
func NewFromConfigWriter(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	level := ParseLevel(cfg.Logging.Level)
	console, err := newHandler(cfg.Logging.Format, w, ConsoleLevel(level, cfg.Output.Verbosity), level <= slog.LevelDebug)
	if err != nil {
		return nil, err
	}

	logPath := cfg.LogPath()
	if logPath == "" {
		return slog.New(console), nil
	}
	fileWriter, err := openWriters([]string{logPath}, nil)
	if err != nil {
		return nil, err
	}
	file := newJSONHandler(fileWriter, level, false)
	return slog.New(newTeeHandler(console, file)), nil
}

// ConsoleLevel raises the configured level to match the output verbosity:
// errors only at 0, warnings at 1 and 2 (summary and tables), the configured
// level from 3 up.
func ConsoleLevel(configured slog.Level, verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return max(configured, slog.LevelError)
	case verbosity < 3:
		return max(configured, slog.LevelWarn)
	default:
		return configured
	}
}

// ParseLevel maps a config level name onto slog levels; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(format string, w io.Writer, level slog.Level, addSource bool) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		return newConsoleHandler(w, level, addSource), nil
	case "json":
		return newJSONHandler(w, level, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

func newJSONHandler(w io.Writer, level slog.Level, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}

func defaultSlice(value []string, fallback []string) []string {
	if len(value) == 0 {
		return append([]string(nil), fallback...)
	}
	return append([]string(nil), value...)
}

func openWriters(outputPaths []string, errorPaths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	combined := append(append([]string{}, outputPaths...), errorPaths...)

	for _, path := range combined {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("ensure log directory: %w", err)
				}
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}
