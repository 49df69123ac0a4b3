package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"shelve/internal/config"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [directory...]",
		Short: "Continuously organize directories as files arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			paths := cfg.Watcher.Paths
			if len(args) > 0 {
				paths = paths[:0]
				for _, arg := range args {
					expanded, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}
					paths = append(paths, expanded)
				}
			}
			if len(paths) == 0 {
				return errors.New("no directories to watch; pass them as arguments or set watcher.paths")
			}
			cfg.Watcher.Paths = paths

			// One watcher instance per data directory; a second invocation
			// would double-process every event.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire instance lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another shelve watch is already running (lock: %s)", cfg.LockPath())
			}
			defer func() {
				_ = lock.Unlock()
			}()

			p, err := ctx.newPipeline()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d directories; press Ctrl-C to stop\n", len(paths))
			if err := p.RunWatch(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	return cmd
}
