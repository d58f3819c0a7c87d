package batch_test

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"testing"

	"mkvbatch/internal/batch"
	"mkvbatch/internal/testsupport"
)

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mkv", "a.MKA", "notes.txt", "sub/c.mks", ".hidden/d.mkv"} {
		testsupport.WriteFile(t, filepath.Join(dir, name), 1)
	}

	tests := []struct {
		name      string
		paths     []string
		recursive bool
		want      []string
	}{
		{
			name:  "directory scan is shallow and sorted",
			paths: []string{dir},
			want:  []string{filepath.Join(dir, "a.MKA"), filepath.Join(dir, "b.mkv")},
		},
		{
			name:      "recursive scan skips hidden directories",
			paths:     []string{dir},
			recursive: true,
			want: []string{
				filepath.Join(dir, "a.MKA"),
				filepath.Join(dir, "b.mkv"),
				filepath.Join(dir, "sub", "c.mks"),
			},
		},
		{
			name:  "explicit files keep argument order and dedupe",
			paths: []string{filepath.Join(dir, "b.mkv"), dir, " "},
			want:  []string{filepath.Join(dir, "b.mkv"), filepath.Join(dir, "a.MKA")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := batch.ResolveInputs(tt.paths, tt.recursive)
			if err != nil {
				t.Fatalf("ResolveInputs returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ResolveInputs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveInputsErrors(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.txt")
	testsupport.WriteFile(t, text, 1)

	_, err := batch.ResolveInputs([]string{filepath.Join(dir, "missing.mkv")}, false)
	var inputErr *batch.InputError
	if !errors.As(err, &inputErr) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected InputError wrapping ErrNotExist, got %v", err)
	}

	_, err = batch.ResolveInputs([]string{text}, false)
	if !errors.Is(err, batch.ErrNotMatroska) {
		t.Fatalf("expected ErrNotMatroska, got %v", err)
	}

	_, err = batch.ResolveInputs([]string{t.TempDir()}, true)
	if !errors.Is(err, batch.ErrNoInputFiles) {
		t.Fatalf("expected ErrNoInputFiles, got %v", err)
	}
}
