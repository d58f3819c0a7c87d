package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoInputFiles is returned when the inputs resolve to zero Matroska files.
var ErrNoInputFiles = errors.New("no matroska input files found")

// ErrNotMatroska flags an explicit file argument with a foreign extension.
var ErrNotMatroska = errors.New("not a matroska file")

// MatroskaExtensions are the file extensions picked up from directories.
var MatroskaExtensions = []string{".mkv", ".mka", ".mks", ".mk3d"}

// InputError reports an input path that could not be resolved.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsMatroska reports whether path carries a Matroska extension.
func IsMatroska(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range MatroskaExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// ResolveInputs expands explicit files and directories into an ordered,
// de-duplicated list of Matroska files. Directories are scanned one level
// deep unless recursive is set; directory entries are sorted by name.
func ResolveInputs(paths []string, recursive bool) ([]string, error) {
	var (
		files []string
		seen  = make(map[string]struct{})
	)
	add := func(path string) {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		files = append(files, path)
	}

	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, &InputError{Path: path, Err: err}
		}
		if !info.IsDir() {
			if !IsMatroska(path) {
				return nil, &InputError{Path: path, Err: ErrNotMatroska}
			}
			add(path)
			continue
		}
		found, err := scanDirectory(path, recursive)
		if err != nil {
			return nil, &InputError{Path: path, Err: err}
		}
		for _, file := range found {
			add(file)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoInputFiles
	}
	return files, nil
}

func scanDirectory(dir string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, entry := range entries {
			if entry.IsDir() || !IsMatroska(entry.Name()) {
				continue
			}
			files = append(files, filepath.Join(dir, entry.Name()))
		}
		return files, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsMatroska(entry.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
