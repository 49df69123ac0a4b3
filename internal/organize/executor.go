package organize

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"shelve/internal/fileutil"
	"shelve/internal/history"
	"shelve/internal/logging"
	"shelve/internal/services"
)

// Executor moves files sequentially so two proposals can never race for the
// same destination name.
type Executor struct {
	strategy          Strategy
	backupOnOverwrite bool
	logger            *slog.Logger
}

// NewExecutor builds an executor for the given conflict strategy.
func NewExecutor(strategy Strategy, backupOnOverwrite bool, logger *slog.Logger) *Executor {
	return &Executor{
		strategy:          strategy,
		backupOnOverwrite: backupOnOverwrite,
		logger:            logging.WithComponent(logger, "organize"),
	}
}

// Execute runs every proposal in order. A failing proposal is recorded and
// skipped over; the rest of the batch still runs. Completed moves are
// appended to entry as they happen so a crash mid-batch loses at most the
// in-flight move.
func (e *Executor) Execute(ctx context.Context, proposals []Proposal, entry *history.Entry) ([]Result, Summary) {
	results := make([]Result, 0, len(proposals))
	var summary Summary

	for _, proposal := range proposals {
		if err := ctx.Err(); err != nil {
			res := Result{Proposal: proposal, Status: StatusFailed, Err: services.Wrap(services.ErrTimeout, "organize", "execute", "batch canceled", err)}
			results = append(results, res)
			summary.Count(res)
			continue
		}
		res := e.executeOne(proposal, entry)
		results = append(results, res)
		summary.Count(res)
	}
	return results, summary
}

func (e *Executor) executeOne(proposal Proposal, entry *history.Entry) Result {
	res := Result{Proposal: proposal, Status: StatusMoving}

	if _, err := os.Lstat(proposal.SourcePath); err != nil {
		res.Status = StatusFailed
		res.Err = services.Wrap(services.ErrNotFound, "organize", "execute", "source vanished before move", err)
		e.logger.Error("move failed", logging.String("source", proposal.SourcePath), logging.Error(res.Err))
		return res
	}

	if err := os.MkdirAll(filepath.Dir(proposal.DestinationPath), 0o755); err != nil {
		res.Status = StatusFailed
		res.Err = services.Wrap(services.ErrTransient, "organize", "execute", "create destination directory", err)
		e.logger.Error("move failed", logging.String("destination", proposal.DestinationPath), logging.Error(res.Err))
		return res
	}

	// Conflicts are re-checked here, not at planning time, because earlier
	// moves in the batch may have claimed the destination since.
	final, status, err := ResolveConflict(proposal.DestinationPath, e.strategy)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		e.logger.Error("move failed", logging.String("destination", proposal.DestinationPath), logging.Error(err))
		return res
	}
	if status == StatusSkipped {
		res.Status = StatusSkipped
		e.logger.Info("move skipped, destination occupied",
			logging.String("source", proposal.SourcePath),
			logging.String("destination", proposal.DestinationPath))
		return res
	}
	if status == StatusConflict && e.backupOnOverwrite {
		backup, err := backupPath(final)
		if err != nil {
			res.Status = StatusFailed
			res.Err = err
			return res
		}
		if err := fileutil.MoveFile(final, backup); err != nil {
			res.Status = StatusFailed
			res.Err = services.Wrap(services.ErrTransient, "organize", "execute", "back up existing file", err)
			e.logger.Error("move failed", logging.String("destination", final), logging.Error(res.Err))
			return res
		}
		e.logger.Info("existing file backed up",
			logging.String("path", final), logging.String("backup", backup))
	}

	if err := fileutil.MoveFile(proposal.SourcePath, final); err != nil {
		res.Status = StatusFailed
		res.Err = services.Wrap(services.ErrTransient, "organize", "execute", "move file", err)
		e.logger.Error("move failed",
			logging.String("source", proposal.SourcePath),
			logging.String("destination", final),
			logging.Error(res.Err))
		return res
	}

	res.Status = StatusCompleted
	res.FinalPath = final
	if entry != nil {
		entry.Append(proposal.SourcePath, final)
	}
	e.logger.Info("moved",
		logging.String("source", proposal.SourcePath),
		logging.String("destination", final))
	return res
}
