package pipeline

import (
	"context"
	"time"

	"shelve/internal/logging"
	"shelve/internal/scan"
	"shelve/internal/watch"
)

// RunWatch monitors the configured directories and feeds each settled batch
// through the organize flow. It blocks until ctx is canceled; watch errors
// are logged and the loop keeps running.
func (p *Pipeline) RunWatch(ctx context.Context) error {
	watcher := watch.New(p.logger, watch.Options{
		DebounceDelay:  time.Duration(p.cfg.Watcher.DebounceMs) * time.Millisecond,
		SettleDelay:    time.Duration(p.cfg.Watcher.SettleMs) * time.Millisecond,
		IgnorePatterns: p.cfg.Watcher.IgnorePatterns,
	})
	if err := watcher.Start(p.cfg.Watcher.Paths); err != nil {
		return err
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-watcher.Errors():
			p.logger.Warn("watch error", logging.Error(err))
		case batch := <-watcher.Batches():
			p.handleBatch(ctx, batch)
		}
	}
}

// handleBatch turns settled events into records and runs them through the
// organize flow. Files that vanished between the event and the run are
// dropped quietly.
func (p *Pipeline) handleBatch(ctx context.Context, batch []watch.Event) {
	if len(batch) == 0 {
		return
	}

	opts := p.scanOptions()
	records := make([]scan.FileRecord, 0, len(batch))
	paths := make([]string, 0, len(batch))
	for _, event := range batch {
		record, err := p.scanner.Record(event.Path, opts)
		if err != nil {
			p.logger.Warn("skipping event, file unreadable",
				logging.String("path", event.Path), logging.Error(err))
			continue
		}
		records = append(records, record)
		paths = append(paths, record.Path)
	}
	if len(records) == 0 {
		return
	}

	summary, err := p.organizeRecords(ctx, commonRoot(paths), records)
	if err != nil {
		p.logger.Error("watch batch failed", logging.Error(err))
		return
	}
	if len(summary.Uncategorized) > 0 {
		p.logger.Info("files left unorganized", logging.Int("count", len(summary.Uncategorized)))
	}
}
