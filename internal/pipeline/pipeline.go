package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"shelve/internal/classify"
	"shelve/internal/config"
	"shelve/internal/history"
	"shelve/internal/logging"
	"shelve/internal/organize"
	"shelve/internal/scan"
	"shelve/internal/services"
)

// Pipeline runs the scan → categorize → move flow. One instance serves both
// one-shot runs and watch mode; each run owns its own history entry.
type Pipeline struct {
	cfg         *config.Config
	scanner     *scan.Scanner
	categorizer classify.Categorizer
	store       *history.Store
	executor    *organize.Executor
	logger      *slog.Logger
}

// Summary is the per-run outcome breakdown. Partial success is the normal
// case, not an error.
type Summary struct {
	Scanned       int               `json:"scanned"`
	Moved         int               `json:"moved"`
	Skipped       int               `json:"skipped"`
	Failed        int               `json:"failed"`
	LowConfidence int               `json:"lowConfidence"`
	Uncategorized []string          `json:"uncategorized,omitempty"`
	Results       []organize.Result `json:"results,omitempty"`
	EntryID       string            `json:"entryId,omitempty"`
}

// New assembles a pipeline from its collaborators.
func New(cfg *config.Config, categorizer classify.Categorizer, store *history.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		scanner:     scan.New(logger),
		categorizer: categorizer,
		store:       store,
		executor: organize.NewExecutor(
			organize.Strategy(cfg.Organizer.ConflictStrategy),
			cfg.Organizer.BackupOnOverwrite,
			logger,
		),
		logger: logging.WithComponent(logger, "pipeline"),
	}
}

// Organize scans sourceDir and runs the full flow over everything found.
func (p *Pipeline) Organize(ctx context.Context, sourceDir string) (*Summary, error) {
	records, err := p.scanner.Scan(ctx, sourceDir, p.scanOptions())
	if err != nil {
		return nil, err
	}
	return p.organizeRecords(ctx, sourceDir, records)
}

// organizeRecords is the shared back half of the flow: categorize in
// chunks, filter by confidence, execute sequentially, persist history.
func (p *Pipeline) organizeRecords(ctx context.Context, sourceRoot string, records []scan.FileRecord) (*Summary, error) {
	summary := &Summary{Scanned: len(records)}
	if len(records) == 0 {
		return summary, nil
	}

	ctx = services.WithRunID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, p.logger)

	targetRoot := p.cfg.Paths.LibraryDir
	folders, err := p.scanner.ListFolders(ctx, targetRoot, scan.FolderOptions{
		MaxDepth: p.cfg.Scanner.FolderListDepth,
		Limit:    p.cfg.Scanner.FolderListMaxCount,
	})
	if err != nil {
		// The categorizer can still place files without the folder survey.
		logger.Warn("folder listing failed, categorizing without it", logging.Error(err))
		folders = nil
	}

	var proposals []organize.Proposal
	for _, chunk := range chunkRecords(records, p.cfg.Organizer.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return summary, services.Wrap(services.ErrTimeout, "pipeline", "organize", "run canceled", err)
		}
		plan, err := p.categorizer.Categorize(ctx, chunk, targetRoot, folders)
		if err != nil {
			// One bad chunk leaves its files behind; the rest still run.
			logger.Error("categorization failed for chunk",
				logging.Int("files", len(chunk)), logging.Error(err))
			for _, record := range chunk {
				summary.Uncategorized = append(summary.Uncategorized, record.Path)
			}
			continue
		}
		proposals = append(proposals, plan.Proposals...)
		summary.Uncategorized = append(summary.Uncategorized, plan.Uncategorized...)
	}

	kept := proposals[:0]
	for _, proposal := range proposals {
		if proposal.Confidence < p.cfg.Organizer.ConfidenceThreshold {
			summary.LowConfidence++
			summary.Uncategorized = append(summary.Uncategorized, proposal.SourcePath)
			continue
		}
		kept = append(kept, proposal)
	}

	entry := history.NewEntry(sourceRoot, targetRoot)
	results, counts := p.executor.Execute(ctx, kept, entry)
	summary.Results = results
	summary.Moved = counts.Moved
	summary.Skipped = counts.Skipped
	summary.Failed = counts.Failed

	if len(entry.Moves) > 0 {
		if err := p.store.Persist(ctx, entry); err != nil {
			// History is convenience, never load-bearing for the moves.
			logger.Error("history persist failed", logging.Error(err))
		} else {
			summary.EntryID = entry.ID
		}
	}

	logger.Info("run complete",
		logging.Int("scanned", summary.Scanned),
		logging.Int("moved", summary.Moved),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("uncategorized", len(summary.Uncategorized)))
	return summary, nil
}

func (p *Pipeline) scanOptions() scan.Options {
	return scan.Options{
		Recursive:      p.cfg.Scanner.Recursive,
		MaxDepth:       p.cfg.Scanner.MaxDepth,
		IgnorePatterns: p.cfg.Scanner.IgnorePatterns,
		ReadContent:    p.cfg.Scanner.ReadContent,
		MaxContentSize: p.cfg.MaxContentSize(),
	}
}

// chunkRecords splits the batch to stay within the categorizer's context
// limits. Boundaries are positional; whether they should keep same-named
// variants together is an open question upstream of this code.
func chunkRecords(records []scan.FileRecord, size int) [][]scan.FileRecord {
	if size <= 0 {
		size = 50
	}
	var chunks [][]scan.FileRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// commonRoot picks a representative source root for a batch of absolute
// paths, used when watch mode assembles a run from events.
func commonRoot(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	root := filepath.Dir(paths[0])
	for _, path := range paths[1:] {
		dir := filepath.Dir(path)
		for root != dir && !isAncestor(root, dir) {
			root = filepath.Dir(root)
		}
	}
	return root
}

func isAncestor(ancestor, dir string) bool {
	rel, err := filepath.Rel(ancestor, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !hasDotDotPrefix(rel))
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}
