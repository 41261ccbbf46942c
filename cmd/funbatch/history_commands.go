package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(cctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(cctx))
	historyCmd.AddCommand(newHistoryShowCommand(cctx))
	historyCmd.AddCommand(newHistoryStatsCommand(cctx))
	historyCmd.AddCommand(newHistoryClearCommand(cctx))

	return historyCmd
}

func newHistoryListCommand(cctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.Scope,
					run.StartedAt.Local().Format(time.DateTime),
					formatDuration(run.Duration()),
					strconv.Itoa(run.Total),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Succeeded),
					strconv.Itoa(run.Failed),
					strconv.Itoa(run.Errored),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Scope", "Started", "Time", "Total", "Skip", "OK", "Fail", "Err"},
				rows, 4, 5, 6, 7, 8))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit runs as JSON")
	return cmd
}

func newHistoryShowCommand(cctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the items of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.RunItems(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, items)
			}
			if len(items) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No items recorded for run %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				exitCode := ""
				if item.ExitCode != nil {
					exitCode = strconv.Itoa(*item.ExitCode)
				}
				rows = append(rows, []string{
					item.SceneID,
					item.VideoPath,
					item.Outcome,
					exitCode,
					formatDuration(item.Duration),
					truncate(item.Detail, 60),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Scene", "Video", "Outcome", "Exit", "Time", "Detail"},
				rows, 3, 4))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit items as JSON")
	return cmd
}

func newHistoryStatsCommand(cctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate counts across all runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Runs:      %d\n", stats.Runs)
			fmt.Fprintf(out, "Items:     %d\n", stats.Items)
			fmt.Fprintf(out, "Skipped:   %d\n", stats.Skipped)
			fmt.Fprintf(out, "Succeeded: %d\n", stats.Succeeded)
			fmt.Fprintf(out, "Failed:    %d\n", stats.Failed)
			fmt.Fprintf(out, "Errored:   %d\n", stats.Errored)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit stats as JSON")
	return cmd
}

func newHistoryClearCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return nil
		},
	}
}
