package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// OutputDir is where extracted assets are written. Empty means next to
	// each input file.
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// Tools names the MKVToolNix executables.
type Tools struct {
	MKVMerge   string `toml:"mkvmerge"`
	MKVExtract string `toml:"mkvextract"`
}

// Extract contains the default selectors and mkvextract switches.
type Extract struct {
	Tracks      string `toml:"tracks"`
	Attachments string `toml:"attachments"`
	Chapters    string `toml:"chapters"`
	Timecodes   string `toml:"timecodes"`
	ParseFully  bool   `toml:"parse_fully"`
	FullRaw     bool   `toml:"full_raw"`
	Recursive   bool   `toml:"recursive"`
}

// Naming contains the output filename patterns per category.
type Naming struct {
	TrackPattern      string `toml:"track_pattern"`
	AttachmentPattern string `toml:"attachment_pattern"`
	ChapterPattern    string `toml:"chapter_pattern"`
	TimecodePattern   string `toml:"timecode_pattern"`
}

// Output controls what the CLI prints.
type Output struct {
	Verbosity int    `toml:"verbosity"`
	Format    string `toml:"format"`
	Passthru  bool   `toml:"passthru"`
	Strict    bool   `toml:"strict"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Journal controls the SQLite extraction journal.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for mkvbatch.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Tools   Tools   `toml:"tools"`
	Extract Extract `toml:"extract"`
	Naming  Naming  `toml:"naming"`
	Output  Output  `toml:"output"`
	Logging Logging `toml:"logging"`
	Journal Journal `toml:"journal"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strictErr *toml.StrictMissingError
			if errors.As(err, &strictErr) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strictErr.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mkvbatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories. The output
// directory is created lazily by the extraction drivers.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the advisory lock file guarding a batch run.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "mkvbatch.lock")
}

// JournalPath returns the SQLite journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LogPath returns the log file location, or "" when file logging is off.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "mkvbatch.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
