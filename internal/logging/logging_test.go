package logging_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mkvbatch/internal/config"
	"mkvbatch/internal/logging"
)

func TestConsoleLoggerFormatsHeaderAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "mkvextract")
	logger.Info("chapters extracted",
		logging.String(logging.FieldFile, "/media/movie.mkv"),
		logging.String("output_path", "/out/movie_chapters.xml"),
		logging.Int("chapter_count", 12),
		logging.String(logging.FieldEventType, "chapters_written"),
	)
	logger.Debug("hidden at info")

	content := readFile(t, logPath)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus three fields, got %q", content)
	}
	if !strings.Contains(lines[0], "INFO [mkvextract] movie.mkv – chapters extracted") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if lines[1] != "    - Event Type: chapters_written" {
		t.Fatalf("expected event type first, got %q", lines[1])
	}
	if !strings.Contains(content, "    - Chapter Count: 12") {
		t.Fatalf("expected humanized label, got %q", content)
	}
}

func TestConsoleLoggerDebugShowsRawKeysAndSource(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("executing mkvextract", logging.String("command", "mkvextract a b"), logging.Uint64("uid", 7))

	content := readFile(t, logPath)
	if !strings.Contains(content, "DEBUG") || !strings.Contains(content, ".go:") {
		t.Fatalf("expected debug header with caller, got %q", content)
	}
	if !strings.Contains(content, `    command: "mkvextract a b"`) || !strings.Contains(content, "    uid: 7") {
		t.Fatalf("expected raw debug fields, got %q", content)
	}
}

func TestJSONLoggerUsesStableKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("mkvextract exited abnormally", logging.Error(errors.New("exit status 2")))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "mkvextract exited abnormally" || entry["error"] != "exit status 2" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Output.Verbosity = 0
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "run-123")
	logging.WithContext(ctx, logger).Info("batch started")

	scanner := bufio.NewScanner(strings.NewReader(readFile(t, cfg.LogPath())))
	if !scanner.Scan() {
		t.Fatal("expected a JSON line in the log file")
	}
	var entry map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldRunID] != "run-123" {
		t.Fatalf("expected run id in file log, got %v", entry)
	}
}

func TestConsoleLevelFollowsVerbosity(t *testing.T) {
	tests := []struct {
		configured slog.Level
		verbosity  int
		want       slog.Level
	}{
		{slog.LevelInfo, 0, slog.LevelError},
		{slog.LevelInfo, 1, slog.LevelWarn},
		{slog.LevelInfo, 2, slog.LevelWarn},
		{slog.LevelInfo, 3, slog.LevelInfo},
		{slog.LevelDebug, 4, slog.LevelDebug},
		{slog.LevelError, 1, slog.LevelError},
	}
	for _, tt := range tests {
		if got := logging.ConsoleLevel(tt.configured, tt.verbosity); got != tt.want {
			t.Errorf("ConsoleLevel(%v, %d) = %v, want %v", tt.configured, tt.verbosity, got, tt.want)
		}
	}
}

func TestNewFromConfigWriterHidesInfoAtSummaryVerbosity(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Output.Verbosity = 1

	var console bytes.Buffer
	logger, err := logging.NewFromConfigWriter(&cfg, &console)
	if err != nil {
		t.Fatalf("NewFromConfigWriter returned error: %v", err)
	}
	logger.Info("nothing to extract")
	logger.Warn("mkvextract exited abnormally")

	out := console.String()
	if strings.Contains(out, "nothing to extract") {
		t.Fatalf("info line reached the console at verbosity 1:\n%s", out)
	}
	if !strings.Contains(out, "mkvextract exited abnormally") {
		t.Fatalf("expected warning on the console, got:\n%s", out)
	}
	if file := readFile(t, cfg.LogPath()); !strings.Contains(file, "nothing to extract") {
		t.Fatalf("expected info line in the log file, got:\n%s", file)
	}
}

func TestRunIDContext(t *testing.T) {
	if _, ok := logging.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id")
	}
	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	ctx := logging.WithRunID(context.Background(), "abc")
	if id, ok := logging.RunIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("unexpected run id %q %v", id, ok)
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "identification failed", "identify_failed", logging.String(logging.FieldErrorHint, "check the file"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "identify_failed" || entry[logging.FieldErrorHint] != "check the file" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry[logging.FieldImpact]; !ok {
		t.Fatalf("expected default impact, got %v", entry)
	}
	logging.WarnWithContext(nil, "ignored", "noop")
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "test")
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("expected no-op logger to be disabled")
	}
	logger.Error("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{"debug": "DEBUG", "WARNING": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"}
	for input, want := range tests {
		if got := logging.ParseLevel(input).String(); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
