package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelve/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if err := config.WriteSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set classifier.api_key before running 'shelve organize'.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"paths.library_dir", cfg.Paths.LibraryDir},
				{"paths.data_dir", cfg.Paths.DataDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"scanner.recursive", yesNo(cfg.Scanner.Recursive)},
				{"scanner.read_content", yesNo(cfg.Scanner.ReadContent)},
				{"organizer.conflict_strategy", cfg.Organizer.ConflictStrategy},
				{"organizer.backup_on_overwrite", yesNo(cfg.Organizer.BackupOnOverwrite)},
				{"organizer.confidence_threshold", fmt.Sprintf("%.2f", cfg.Organizer.ConfidenceThreshold)},
				{"organizer.chunk_size", fmt.Sprintf("%d", cfg.Organizer.ChunkSize)},
				{"classifier.model", cfg.Classifier.Model},
				{"classifier.api_key", maskSecret(cfg.Classifier.APIKey)},
				{"classifier.title_case_folders", yesNo(cfg.Classifier.TitleCaseFolders)},
				{"watcher.paths", strings.Join(cfg.Watcher.Paths, ", ")},
				{"watcher.debounce_ms", fmt.Sprintf("%d", cfg.Watcher.DebounceMs)},
				{"watcher.settle_ms", fmt.Sprintf("%d", cfg.Watcher.SettleMs)},
				{"duplicates.cache_enabled", yesNo(cfg.Duplicates.CacheEnabled)},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Setting", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
