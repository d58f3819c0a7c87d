package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mkvbatch/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the mkvbatch log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			if path == "" {
				return errors.New("file logging is disabled (paths.log_dir is empty)")
			}
			if lines < 0 {
				return fmt.Errorf("--lines must be >= 0, got %d", lines)
			}

			out := cmd.OutOrStdout()
			emit := func(line string) {
				if !raw {
					line = logs.Format(line)
				}
				fmt.Fprintln(out, line)
			}

			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			if offset == 0 && !follow {
				fmt.Fprintf(out, "No log entries in %s\n", path)
				return nil
			}
			for _, line := range tail {
				emit(line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 0, emit)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON lines unformatted")
	return cmd
}
