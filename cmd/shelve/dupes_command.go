package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelve/internal/config"
	"shelve/internal/dupes"
	"shelve/internal/logging"
	"shelve/internal/scan"
)

func newDupesCommand(ctx *commandContext) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "dupes <directory>",
		Short: "Report files with identical content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			scanner := scan.New(logger)
			records, err := scanner.Scan(cmd.Context(), dir, scan.Options{
				Recursive:      recursive,
				IgnorePatterns: cfg.Scanner.IgnorePatterns,
			})
			if err != nil {
				return err
			}

			opts := []dupes.Option{}
			if cfg.Duplicates.CacheEnabled {
				cache, err := dupes.OpenCache(cfg.HashCachePath())
				if err != nil {
					logger.Warn("hash cache unavailable, hashing everything", logging.Error(err))
				} else {
					defer cache.Close()
					opts = append(opts, dupes.WithCache(cache))
				}
			}

			detector := dupes.New(logger, opts...)
			groups, err := detector.Detect(cmd.Context(), records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				fmt.Fprintf(out, "No duplicates among %d files\n", len(records))
				return nil
			}

			var wasted int64
			rows := make([][]string, 0, len(groups))
			for _, group := range groups {
				wasted += group.WastedBytes
				first := group.Files[0].Path
				rows = append(rows, []string{
					shortHash(group.Hash),
					fmt.Sprintf("%d", len(group.Files)),
					formatBytes(group.WastedBytes),
					first,
				})
				for _, file := range group.Files[1:] {
					rows = append(rows, []string{"", "", "", file.Path})
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Hash", "Copies", "Wasted", "Files"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d duplicate groups, %s reclaimable\n", len(groups), formatBytes(wasted))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "Scan subdirectories too")
	return cmd
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
