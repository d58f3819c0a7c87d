package config

const (
	defaultConfigPath        = "~/.config/mkvbatch/config.toml"
	defaultLogDir            = "~/.local/share/mkvbatch/logs"
	defaultStateDir          = "~/.local/share/mkvbatch"
	defaultMKVMerge          = "mkvmerge"
	defaultMKVExtract        = "mkvextract"
	defaultSelector          = "none"
	defaultTrackPattern      = "$f_$i"
	defaultAttachmentPattern = "$n"
	defaultChapterPattern    = "$f_chapters"
	defaultTimecodePattern   = "$f_$i_timecodes_$v"
	defaultVerbosity         = 1
	defaultOutputFormat      = "json"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	maxVerbosity             = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Tools: Tools{
			MKVMerge:   defaultMKVMerge,
			MKVExtract: defaultMKVExtract,
		},
		Extract: Extract{
			Tracks:      defaultSelector,
			Attachments: defaultSelector,
			Chapters:    defaultSelector,
			Timecodes:   defaultSelector,
		},
		Naming: Naming{
			TrackPattern:      defaultTrackPattern,
			AttachmentPattern: defaultAttachmentPattern,
			ChapterPattern:    defaultChapterPattern,
			TimecodePattern:   defaultTimecodePattern,
		},
		Output: Output{
			Verbosity: defaultVerbosity,
			Format:    defaultOutputFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Journal: Journal{
			Enabled: true,
		},
	}
}
