package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"shelve/internal/config"
	"shelve/internal/organize"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize <directory>",
		Short: "Categorize and move the files in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			p, err := ctx.newPipeline()
			if err != nil {
				return err
			}

			summary, err := p.Organize(cmd.Context(), source)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary.Scanned == 0 {
				fmt.Fprintf(out, "Nothing to organize in %s\n", source)
				return nil
			}

			if len(summary.Results) > 0 {
				rows := make([][]string, 0, len(summary.Results))
				for _, res := range summary.Results {
					detail := res.FinalPath
					if res.Status == organize.StatusFailed && res.Err != nil {
						detail = res.Err.Error()
					}
					rows = append(rows, []string{
						filepath.Base(res.Proposal.SourcePath),
						string(res.Status),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Status", "Destination"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}

			fmt.Fprintf(out, "Moved %d, skipped %d, failed %d of %d scanned files\n",
				summary.Moved, summary.Skipped, summary.Failed, summary.Scanned)
			if summary.LowConfidence > 0 {
				fmt.Fprintf(out, "%d proposals were below the confidence threshold\n", summary.LowConfidence)
			}
			if len(summary.Uncategorized) > 0 {
				fmt.Fprintf(out, "Left in place (%d):\n", len(summary.Uncategorized))
				for _, path := range summary.Uncategorized {
					fmt.Fprintf(out, "  %s\n", path)
				}
			}
			if summary.EntryID != "" {
				fmt.Fprintf(out, "Undo with: shelve undo %s\n", summary.EntryID)
			}
			return nil
		},
	}
	return cmd
}
