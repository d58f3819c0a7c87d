package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mkvbatch/internal/config"
	"mkvbatch/internal/deps"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/testsupport"
)

const cleanExtractScript = `mode="$2"
[ "$1" = "chapters" ] && mode=chapters
case "$mode" in
  tracks|timestamps_v2)
    echo "Progress: 50%"
    echo "Progress: 100%"
    ;;
esac
exit 0
`

const failingExtractScript = `echo "Error: simulated failure"
exit 2
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	inputDir   string
}

func setupCLITestEnv(t *testing.T, extractScript string) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithStubScript("mkvmerge", testsupport.MKVMergeScript()),
		testsupport.WithStubScript("mkvextract", extractScript),
	)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	inputDir := filepath.Join(base, "media")
	testsupport.WriteFile(t, filepath.Join(inputDir, "movie.mkv"), 1024)

	env := &cliTestEnv{cfg: cfg, configPath: filepath.Join(base, "config.toml"), inputDir: inputDir}
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestExtractPassthruJSON(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)

	out, _, err := runCLI(t, "extract", "--config", env.configPath,
		"--tracks", "audio", "--timecodes", "0", "--passthru", "-v", "0", env.inputDir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	var metas []mkv.FileMetadata
	if err := json.Unmarshal([]byte(out), &metas); err != nil {
		t.Fatalf("decode passthru output: %v\n%s", err, out)
	}
	if len(metas) != 1 {
		t.Fatalf("expected one file, got %d", len(metas))
	}
	tracks := metas[0].Tracks
	if tracks[1].State != mkv.StateSucceeded || tracks[2].State != mkv.StateSucceeded {
		t.Fatalf("audio tracks not extracted: %s/%s", tracks[1].State, tracks[2].State)
	}
	if want := filepath.Join(env.cfg.Paths.OutputDir, "movie_1.aac"); tracks[1].Path != want {
		t.Fatalf("track path = %q, want %q", tracks[1].Path, want)
	}
	if tracks[0].State != mkv.StateUnmarked || tracks[0].TimecodesState != mkv.StateSucceeded {
		t.Fatalf("video track state = %s/%s", tracks[0].State, tracks[0].TimecodesState)
	}
}

func TestExtractPassthruYAML(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)

	out, _, err := runCLI(t, "extract", "--config", env.configPath,
		"--tracks", "subtitles", "--passthru", "--format", "yaml", "-v", "0", env.inputDir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "extraction_state: succeeded")
	requireContains(t, out, "movie_3.srt")
}

func TestExtractSummaryTables(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)

	out, _, err := runCLI(t, "extract", "--config", env.configPath, "--tracks", "1", "-v", "2", env.inputDir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "movie.mkv [completed]")
	requireContains(t, out, "Audio · English · AAC")
	requireContains(t, out, "Processed 1 file")
	requireContains(t, out, "1 succeeded, 0 failed")
}

func TestExtractSummaryVerbosityPrintsOnlySummary(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)

	out, errOut, err := runCLI(t, "extract", "--config", env.configPath, "--tracks", "audio", "-v", "1", env.inputDir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "Processed 1 file") {
		t.Fatalf("expected a single summary line, got:\n%s", out)
	}
	if strings.TrimSpace(errOut) != "" {
		t.Fatalf("expected no log output at verbosity 1, got:\n%s", errOut)
	}
}

func TestExtractStrictExitStatus(t *testing.T) {
	env := setupCLITestEnv(t, failingExtractScript)

	_, _, err := runCLI(t, "extract", "--config", env.configPath, "--tracks", "all", "-v", "0", env.inputDir)
	if err != nil {
		t.Fatalf("failed assets without --strict should not fail the command: %v", err)
	}

	_, _, err = runCLI(t, "extract", "--config", env.configPath, "--tracks", "all", "--strict", "-v", "0", env.inputDir)
	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.code != exitStrict {
		t.Fatalf("expected strict exit status, got %v", err)
	}
}

func TestExtractMissingToolIsFatal(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)
	env.cfg.Tools.MKVMerge = "mkvmerge-not-installed"
	env.writeConfig(t)

	_, _, err := runCLI(t, "extract", "--config", env.configPath, "--tracks", "all", env.inputDir)
	if !errors.Is(err, deps.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}

	out, _, err := runCLI(t, "check", "--config", env.configPath)
	if !errors.Is(err, deps.ErrToolNotFound) {
		t.Fatalf("check should fail on missing tools, got %v", err)
	}
	requireContains(t, out, "missing")
	requireContains(t, out, "mkvextract")
}

func TestExtractRejectsInvalidFlags(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)

	_, _, err := runCLI(t, "extract", "--config", env.configPath, "--format", "xml", env.inputDir)
	if err == nil || !strings.Contains(err.Error(), "output.format") {
		t.Fatalf("expected format validation error, got %v", err)
	}
	_, _, err = runCLI(t, "extract", "--config", env.configPath, filepath.Join(env.inputDir, "missing.mkv"))
	if err == nil {
		t.Fatal("expected input resolution error")
	}
}

func TestHistoryListsJournaledRuns(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)

	out, _, err := runCLI(t, "history", "--config", env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := runCLI(t, "extract", "--config", env.configPath, "--tracks", "audio", "-v", "0", env.inputDir); err != nil {
		t.Fatalf("extract: %v", err)
	}
	out, _, err = runCLI(t, "history", "--config", env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "extract")
}

func TestLogsFormatsTail(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)

	out, _, err := runCLI(t, "logs", "--config", env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries")

	logPath := env.cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `{"ts":"2026-03-01T10:00:00Z","level":"info","msg":"batch started","component":"batch"}` + "\n" +
		`{"ts":"2026-03-01T10:00:05Z","level":"warn","msg":"extraction failed","component":"mkvextract","exit_code":2}` + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err = runCLI(t, "logs", "--config", env.configPath, "-n", "1")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "[mkvextract] extraction failed")
	requireContains(t, out, "exit_code=2")
	if strings.Contains(out, "batch started") {
		t.Fatalf("expected only the last line, got %q", out)
	}

	out, _, err = runCLI(t, "logs", "--config", env.configPath, "--raw")
	if err != nil {
		t.Fatalf("logs --raw: %v", err)
	}
	requireContains(t, out, `"msg":"batch started"`)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)

	out, _, err := runCLI(t, "config", "validate", "--config", env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	if _, _, err := runCLI(t, "config", "validate", "--config", target); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)
	t.Setenv("MKVBATCH_VERBOSITY", "3")

	out, _, err := runCLI(t, "config", "show", "--config", env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# "+env.configPath)

	var shown config.Config
	if err := toml.Unmarshal([]byte(strings.SplitN(out, "\n", 2)[1]), &shown); err != nil {
		t.Fatalf("decode shown config: %v\n%s", err, out)
	}
	if shown.Output.Verbosity != 3 {
		t.Fatalf("expected environment override in shown config, got verbosity %d", shown.Output.Verbosity)
	}
	if shown.Paths.StateDir != env.cfg.Paths.StateDir {
		t.Fatalf("state dir = %q, want %q", shown.Paths.StateDir, env.cfg.Paths.StateDir)
	}
}

func TestConfigValidateWarnsOnUnsupportedChapterFormat(t *testing.T) {
	env := setupCLITestEnv(t, cleanExtractScript)
	env.cfg.Extract.Chapters = "xml,ogm"
	env.writeConfig(t)

	out, _, err := runCLI(t, "config", "validate", "--config", env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Warning: extract.chapters")
	requireContains(t, out, "ogm")
	requireContains(t, out, "Configuration valid")
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		silent bool
	}{
		{name: "success", err: nil, code: 0, silent: true},
		{name: "fatal", err: errors.New("boom"), code: 1},
		{name: "strict", err: &exitError{code: exitStrict, err: errors.New("2 assets failed")}, code: exitStrict},
		{name: "interrupted", err: fmt.Errorf("batch interrupted: %w", context.Canceled), code: 1, silent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := exitStatus(tt.err, &buf); got != tt.code {
				t.Fatalf("exitStatus = %d, want %d", got, tt.code)
			}
			if tt.silent != (buf.Len() == 0) {
				t.Fatalf("unexpected output %q", buf.String())
			}
		})
	}
}
