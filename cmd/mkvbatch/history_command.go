package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkvbatch/internal/journal"
	"mkvbatch/internal/mkv"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent extraction runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				entries, err := store.Entries(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintf(out, "No entries recorded for run %s\n", runID)
					return nil
				}
				rows := make([][]string, 0, len(entries))
				failed := 0
				for _, e := range entries {
					rows = append(rows, []string{e.File, e.Category, e.Asset, e.State, dash(e.Path), dash(e.Error)})
					if e.State == mkv.StateFailed.String() {
						failed++
					}
				}
				fmt.Fprintln(out, tableSpec{
					title:   "Run " + runID,
					headers: []string{"File", "Category", "Asset", "State", "Output", "Error"},
					rows:    rows,
					footer:  []string{"", "", "", fmt.Sprintf("%d assets, %d failed", len(entries), failed)},
				}.render())
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					humanize.Time(r.StartedAt),
					string(r.Status),
					strconv.Itoa(r.Files),
					strconv.Itoa(r.Succeeded),
					strconv.Itoa(r.Failed),
					dash(r.Args),
				})
			}
			fmt.Fprintln(out, tableSpec{
				headers: []string{"Run", "Started", "Status", "Files", "Succeeded", "Failed", "Arguments"},
				rows:    rows,
				right:   []int{3, 4, 5},
			}.render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the recorded assets of one run")
	return cmd
}
