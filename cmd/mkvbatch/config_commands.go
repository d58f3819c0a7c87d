package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/selection"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and scaffold the mkvbatch configuration",
		Long: `The configuration file is TOML with these sections:

  [paths]    output_dir, log_dir, state_dir (journal and batch lock)
  [tools]    mkvmerge and mkvextract executables
  [extract]  default selectors per category plus parse_fully, full_raw, recursive
  [naming]   filename patterns using $f $i $t $n $l $v
  [output]   verbosity 0-4, passthru format, strict exit status
  [logging]  console format and level
  [journal]  enable the SQLite extraction journal

MKVBATCH_OUTPUT_DIR and MKVBATCH_VERBOSITY override the file; extract flags
override both.`,
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the commented sample configuration",
		Long:        "Write the commented sample configuration to ~/.config/mkvbatch/config.toml or --path. Every selector defaults to none, so a bare `mkvbatch extract` only identifies files until [extract] is edited.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set the [extract] selectors there to change what a bare `mkvbatch extract` pulls out.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func configTarget(flagValue string) (string, error) {
	target := strings.TrimSpace(flagValue)
	if target == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(target)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration and its default selectors",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "State directory: %s\n", cfg.Paths.StateDir)
			fmt.Fprintf(out, "Output directory: %s\n", textOr(cfg.Paths.OutputDir, "next to each input"))
			fmt.Fprintf(out, "Tools: %s, %s\n", cfg.Tools.MKVMerge, cfg.Tools.MKVExtract)

			_, errs := selection.ParseChapterTypes(selection.Parse(cfg.Extract.Chapters))
			for _, err := range errs {
				fmt.Fprintf(out, "Warning: extract.chapters: %v (ignored during extraction)\n", err)
			}
			fmt.Fprintf(out, "Default selectors: tracks=%s attachments=%s chapters=%s timecodes=%s\n",
				cfg.Extract.Tracks, cfg.Extract.Attachments, cfg.Extract.Chapters, cfg.Extract.Timecodes)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Long:  "Print the configuration after defaults, the config file, and environment overrides are applied.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", textOr(ctx.configPath, "defaults"))
			_, err = out.Write(data)
			return err
		},
	}
}

func textOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
