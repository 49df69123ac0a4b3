package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past organizing operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(ctx, cmd, 20)
		},
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent operations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(ctx, cmd, limit)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show every move in one operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Operation %s\n", entry.ID)
			fmt.Fprintf(out, "When:   %s\n", entry.Timestamp.Local().Format(time.RFC1123))
			fmt.Fprintf(out, "From:   %s\n", entry.SourceRoot)
			fmt.Fprintf(out, "Into:   %s\n", entry.TargetRoot)

			rows := make([][]string, 0, len(entry.Moves))
			for _, move := range entry.Moves {
				rows = append(rows, []string{move.Source, move.Destination})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Destination"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	historyCmd.AddCommand(listCmd)
	historyCmd.AddCommand(showCmd)
	return historyCmd
}

func runHistoryList(ctx *commandContext, cmd *cobra.Command, limit int) error {
	store, err := ctx.historyStore()
	if err != nil {
		return err
	}
	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history yet")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ID,
			entry.Timestamp.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", len(entry.Moves)),
			entry.TargetRoot,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "When", "Moves", "Target"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <id>",
		Short: "Reverse the moves of a past operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}

			result, err := store.Undo(cmd.Context(), args[0])
			out := cmd.OutOrStdout()
			if result != nil {
				fmt.Fprintf(out, "Restored %d, skipped %d, failed %d\n",
					result.Restored, result.Skipped, result.Failed)
			}
			return err
		},
	}
}
