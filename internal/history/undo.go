package history

import (
	"context"
	"os"
	"path/filepath"

	"shelve/internal/fileutil"
	"shelve/internal/logging"
	"shelve/internal/services"
)

// UndoResult summarizes what a reversal accomplished.
type UndoResult struct {
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Undo reverses every move in the entry, newest move first so files that
// were shuffled through intermediate paths unwind cleanly. Destinations
// that no longer exist are skipped. The entry is removed from the log only
// when nothing failed, so a partial reversal stays visible and retryable.
func (s *Store) Undo(ctx context.Context, id string) (*UndoResult, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &UndoResult{}
	for i := len(entry.Moves) - 1; i >= 0; i-- {
		move := entry.Moves[i]
		src := move.Destination
		dst := move.Source

		if _, err := os.Stat(src); err != nil {
			result.Skipped++
			s.logger.Warn("undo skipped, file no longer at destination",
				logging.String("path", src), logging.Error(err))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			result.Failed++
			s.logger.Error("undo failed, cannot create original directory",
				logging.String("path", dst), logging.Error(err))
			continue
		}
		if err := fileutil.MoveFile(src, dst); err != nil {
			result.Failed++
			s.logger.Error("undo failed, move back errored",
				logging.String("source", src), logging.String("destination", dst), logging.Error(err))
			continue
		}
		result.Restored++
	}

	if result.Failed > 0 {
		return result, services.Wrap(services.ErrTransient, "history", "undo",
			"some files could not be restored; entry kept for retry", nil)
	}
	if err := s.Delete(ctx, id); err != nil {
		s.logger.Warn("undo complete but entry removal failed", logging.String("id", id), logging.Error(err))
	}
	return result, nil
}
