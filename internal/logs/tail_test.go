package logs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatalf("write log: %v", err)
		}
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkvbatch.log")
	writeLog(t, path, "one", "two", "three", "four")

	lines, offset, err := Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"three", "four"}) {
		t.Fatalf("unexpected lines %v", lines)
	}
	if offset != int64(len("one\ntwo\nthree\nfour\n")) {
		t.Fatalf("unexpected offset %d", offset)
	}

	lines, _, err = Last(path, 10)
	if err != nil || len(lines) != 4 {
		t.Fatalf("expected all 4 lines, got %v (%v)", lines, err)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := Last(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result, got %v %d %v", lines, offset, err)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkvbatch.log")
	writeLog(t, path, "old")
	_, offset, err := Last(path, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	writeLog(t, path, "new one", "new two")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"new one", "new two"}) {
		t.Fatalf("unexpected followed lines %v", got)
	}
}

func TestReadFromRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkvbatch.log")
	writeLog(t, path, "fresh")

	var got []string
	offset, err := readFrom(path, 1000, func(line string) { got = append(got, line) })
	if err != nil {
		t.Fatalf("readFrom: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"fresh"}) || offset != 6 {
		t.Fatalf("unexpected result %v offset %d", got, offset)
	}
}

func TestFormatRendersJSONLines(t *testing.T) {
	line := `{"ts":"2026-03-01T10:00:00Z","level":"warn","msg":"mkvextract exited abnormally","component":"mkvextract","file":"/media/movie.mkv","exit_code":2}`
	entry, ok := Parse(line)
	if !ok {
		t.Fatal("expected JSON line to parse")
	}
	if entry.Level != slog.LevelWarn || entry.Component != "mkvextract" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	out := entry.String()
	for _, want := range []string{"WARN", "[mkvextract]", "mkvextract exited abnormally", "exit_code=2", "file=/media/movie.mkv"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if Format("plain text") != "plain text" {
		t.Fatal("non-JSON lines should pass through")
	}
}
