package mkvextract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	"mkvbatch/internal/mkv"
	"mkvbatch/internal/mkvextract"
	"mkvbatch/internal/selection"
)

type stubExecutor struct {
	lines []string
	err   error
	calls int
	args  [][]string
	// before runs ahead of the scripted output, e.g. to create files.
	before func(args []string)
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	s.calls++
	s.args = append(s.args, append([]string(nil), args...))
	if s.before != nil {
		s.before(args)
	}
	for _, line := range s.lines {
		onLine(line)
	}
	return s.err
}

func newExtractor(t *testing.T, exec mkvextract.Executor, settings mkvextract.Settings) *mkvextract.Extractor {
	t.Helper()
	extractor, err := mkvextract.New("mkvextract", settings, mkvextract.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return extractor
}

func twoVideoTracks(path string) *mkv.FileMetadata {
	return &mkv.FileMetadata{
		Path: path,
		Tracks: []*mkv.Track{
			{ID: 0, Type: mkv.TrackVideo, CodecID: "V_MPEG4/ISO/AVC", Extension: "h264"},
			{ID: 1, Type: mkv.TrackVideo, CodecID: "V_MPEG4/ISO/AVC", Extension: "h264"},
		},
	}
}

func markAll(meta *mkv.FileMetadata) {
	for _, track := range meta.Tracks {
		track.State.Mark()
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := mkvextract.New("  ", mkvextract.Settings{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestTracksSucceedOnFullProgress(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join("/media", "movie.mkv"))
	markAll(meta)

	exec := &stubExecutor{lines: []string{
		"Extracting track 0 with the CodecID 'V_MPEG4/ISO/AVC' to the file '" + filepath.Join(dir, "movie_0.h264") + "'. Container format: AVC/H.264 elementary stream",
		"Extracting track 1 with the CodecID 'V_MPEG4/ISO/AVC' to the file '" + filepath.Join(dir, "movie_1.h264") + "'. Container format: AVC/H.264 elementary stream",
		"Progress: 42%",
		"Progress: 100%",
	}}
	var updates []int
	extractor, err := mkvextract.New("mkvextract", mkvextract.Settings{OutputDir: dir},
		mkvextract.WithExecutor(exec),
		mkvextract.WithProgress(func(u mkvextract.ProgressUpdate) { updates = append(updates, u.Percent) }),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result := extractor.Tracks(context.Background(), meta)
	if !result.Invoked || exec.calls != 1 {
		t.Fatalf("expected exactly one invocation, got invoked=%v calls=%d", result.Invoked, exec.calls)
	}
	if result.Succeeded != 2 || result.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	for i, track := range meta.Tracks {
		if track.State != mkv.StateSucceeded {
			t.Fatalf("track %d state = %s, want succeeded", i, track.State)
		}
	}
	if want := filepath.Join(dir, "movie_0.h264"); meta.Tracks[0].Path != want {
		t.Fatalf("track 0 path = %q, want %q", meta.Tracks[0].Path, want)
	}
	if want := filepath.Join(dir, "movie_1.h264"); meta.Tracks[1].Path != want {
		t.Fatalf("track 1 path = %q, want %q", meta.Tracks[1].Path, want)
	}
	if !reflect.DeepEqual(updates, []int{42, 100}) {
		t.Fatalf("unexpected progress updates: %v", updates)
	}

	args := exec.args[0]
	if args[0] != meta.Path || args[1] != "tracks" {
		t.Fatalf("unexpected leading args: %v", args)
	}
	if !slices.Contains(args, "0:"+filepath.Join(dir, "movie_0.h264")) || !slices.Contains(args, "1:"+filepath.Join(dir, "movie_1.h264")) {
		t.Fatalf("track specs missing from args: %v", args)
	}
	if !slices.Contains(args, "--ui-language") {
		t.Fatalf("expected --ui-language in args: %v", args)
	}
}

func TestVideoSelectorThenTracksDriver(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join(dir, "movie.mkv"))
	meta.Tracks = append(meta.Tracks, &mkv.Track{ID: 2, Type: mkv.TrackAudio, CodecID: "A_AAC", Extension: "aac"})

	marked, errs := selection.SelectTracks(meta.Tracks, selection.Parse("video"))
	if marked != 2 || len(errs) != 0 {
		t.Fatalf("SelectTracks = %d, %v; want 2 marked and no errors", marked, errs)
	}
	for i, track := range meta.Tracks[:2] {
		if track.State != mkv.StateMarked {
			t.Fatalf("track %d state = %s, want marked", i, track.State)
		}
	}

	exec := &stubExecutor{lines: []string{"Progress: 100%"}}
	result := newExtractor(t, exec, mkvextract.Settings{}).Tracks(context.Background(), meta)
	if result.Succeeded != 2 || result.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	for i, want := range []string{filepath.Join(dir, "movie_0.h264"), filepath.Join(dir, "movie_1.h264")} {
		track := meta.Tracks[i]
		if track.State != mkv.StateSucceeded || track.Path != want {
			t.Fatalf("track %d = %s %q, want succeeded %q", i, track.State, track.Path, want)
		}
	}
	if meta.Tracks[2].State != mkv.StateUnmarked || meta.Tracks[2].Path != "" {
		t.Fatalf("audio track should be untouched, got %s %q", meta.Tracks[2].State, meta.Tracks[2].Path)
	}
}

func TestTracksErrorLineFailsAllAndClearsPaths(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join(dir, "movie.mkv"))
	markAll(meta)
	exec := &stubExecutor{
		lines: []string{"Progress: 10%", "Error: The file could not be opened for writing."},
		err:   &mkvextract.ExitError{Code: 2},
	}

	result := newExtractor(t, exec, mkvextract.Settings{}).Tracks(context.Background(), meta)
	if result.Failed != 2 || result.Succeeded != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.ExitCode != 2 {
		t.Fatalf("exit code = %d, want 2", result.ExitCode)
	}
	if len(result.Errors) == 0 || result.Errors[0] != "The file could not be opened for writing." {
		t.Fatalf("expected tool error recorded, got %v", result.Errors)
	}
	for _, track := range meta.Tracks {
		if track.State != mkv.StateFailed || track.Path != "" {
			t.Fatalf("expected failed track with cleared path, got %s %q", track.State, track.Path)
		}
	}
}

func TestTracksNothingMarkedSkipsInvocation(t *testing.T) {
	meta := twoVideoTracks("/media/movie.mkv")
	exec := &stubExecutor{}
	result := newExtractor(t, exec, mkvextract.Settings{}).Tracks(context.Background(), meta)
	if exec.calls != 0 || !result.Skipped() {
		t.Fatalf("expected no invocation, calls=%d result=%+v", exec.calls, result)
	}
	for _, track := range meta.Tracks {
		if track.State != mkv.StateUnmarked {
			t.Fatalf("state changed without selection: %s", track.State)
		}
	}
}

func TestTracksSkipsUnsupportedCodec(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join(dir, "movie.mkv"))
	meta.Tracks[1].Extension = ""
	markAll(meta)
	exec := &stubExecutor{lines: []string{"Progress: 100%"}}

	result := newExtractor(t, exec, mkvextract.Settings{}).Tracks(context.Background(), meta)
	if result.Marked != 1 || result.Succeeded != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if meta.Tracks[1].State != mkv.StateMarked {
		t.Fatalf("unsupported track should stay marked, got %s", meta.Tracks[1].State)
	}
}

func TestTracksWarningExitTrustsOutputFiles(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join(dir, "movie.mkv"))
	markAll(meta)
	exec := &stubExecutor{
		lines: []string{"Warning: damaged frame"},
		err:   &mkvextract.ExitError{Code: 1},
		before: func([]string) {
			if err := os.WriteFile(filepath.Join(dir, "movie_0.h264"), []byte("x"), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
		},
	}

	result := newExtractor(t, exec, mkvextract.Settings{}).Tracks(context.Background(), meta)
	if meta.Tracks[0].State != mkv.StateSucceeded {
		t.Fatalf("track 0 = %s, want succeeded", meta.Tracks[0].State)
	}
	if meta.Tracks[1].State != mkv.StateFailed {
		t.Fatalf("track 1 = %s, want failed", meta.Tracks[1].State)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected warning recorded, got %v", result.Warnings)
	}
}

func TestTracksStaleOutputFilesDoNotCountAsSuccess(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join(dir, "movie.mkv"))
	markAll(meta)
	old := time.Now().Add(-time.Hour)
	for _, name := range []string{"movie_0.h264", "movie_1.h264"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("previous run"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	exec := &stubExecutor{lines: []string{"Progress: 40%"}}

	result := newExtractor(t, exec, mkvextract.Settings{}).Tracks(context.Background(), meta)
	for i, track := range meta.Tracks {
		if track.State != mkv.StateFailed {
			t.Fatalf("track %d = %s, want failed", i, track.State)
		}
	}
	if result.Succeeded != 0 || result.Failed != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
}

func TestTracksFullRawAndParseFullyFlags(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join(dir, "movie.mkv"))
	markAll(meta)
	exec := &stubExecutor{lines: []string{"Progress: 100%"}}

	newExtractor(t, exec, mkvextract.Settings{FullRaw: true, ParseFully: true, Verbosity: mkvextract.VerbosityFull}).Tracks(context.Background(), meta)
	args := exec.args[0]
	for _, flag := range []string{"--fullraw", "--parse-fully", "--verbose"} {
		if !slices.Contains(args, flag) {
			t.Fatalf("expected %s in args: %v", flag, args)
		}
	}
}

func TestTracksCancellationLeavesStateUntouched(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join(dir, "movie.mkv"))
	markAll(meta)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &stubExecutor{err: context.Canceled}

	result := newExtractor(t, exec, mkvextract.Settings{}).Tracks(ctx, meta)
	if !errors.Is(result.Err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", result.Err)
	}
	for _, track := range meta.Tracks {
		if track.State != mkv.StateMarked {
			t.Fatalf("state = %s, want marked", track.State)
		}
	}
}

func TestTimecodesUseV2Mode(t *testing.T) {
	dir := t.TempDir()
	meta := twoVideoTracks(filepath.Join(dir, "movie.mkv"))
	meta.Tracks[0].TimecodesState.Mark()
	exec := &stubExecutor{lines: []string{
		"Extracting the timestamps for track 0 to '" + filepath.Join(dir, "movie_0_timecodes_v2.txt") + "'.",
		"Progress: 100%",
	}}

	result := newExtractor(t, exec, mkvextract.Settings{}).Timecodes(context.Background(), meta)
	if result.Succeeded != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if exec.args[0][1] != "timestamps_v2" {
		t.Fatalf("unexpected mode: %v", exec.args[0])
	}
	if want := filepath.Join(dir, "movie_0_timecodes_v2.txt"); meta.Tracks[0].TimecodesPath != want {
		t.Fatalf("timecodes path = %q, want %q", meta.Tracks[0].TimecodesPath, want)
	}
	if meta.Tracks[0].State != mkv.StateUnmarked || meta.Tracks[1].TimecodesState != mkv.StateUnmarked {
		t.Fatal("timecode extraction must not touch unrelated state")
	}
}
