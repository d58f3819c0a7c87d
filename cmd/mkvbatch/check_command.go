package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mkvbatch/internal/deps"
	"mkvbatch/internal/preflight"
	"mkvbatch/internal/textutil"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify MKVToolNix binaries and writable directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckTools(cfg)
			deps.ProbeVersions(cmd.Context(), statuses)

			fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
			rows := make([][]string, 0, len(statuses))
			var missing []string
			for _, s := range statuses {
				rows = append(rows, []string{
					s.Name,
					textutil.Ternary(s.Available, "found", "missing"),
					dash(textutil.Ternary(s.Available, s.Path, s.Detail)),
					dash(s.Version),
				})
				if !s.Available && !s.Optional {
					missing = append(missing, s.Name)
				}
			}
			fmt.Fprintln(out, tableSpec{headers: []string{"Tool", "Status", "Path", "Version"}, rows: rows}.render())

			fmt.Fprintln(out, renderSectionHeader("Directories", colorize))
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results[len(statuses):] {
				kind := textutil.Ternary(r.Passed, statusOK, statusError)
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if ctx.configPath != "" {
				fmt.Fprintln(out, renderStatusLine("Config", statusOK, ctx.configPath, colorize))
			}

			if len(missing) > 0 {
				return fmt.Errorf("%w: %s", deps.ErrToolNotFound, strings.Join(missing, ", "))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New("preflight failed: " + failed[0].Name + ": " + failed[0].Detail)
			}
			return nil
		},
	}
}
