package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelve/internal/classify"
	"shelve/internal/config"
	"shelve/internal/history"
	"shelve/internal/logging"
	"shelve/internal/organize"
	"shelve/internal/pipeline"
	"shelve/internal/scan"
	"shelve/internal/testsupport"
)

// extensionCategorizer files everything by extension and refuses files
// without one.
type extensionCategorizer struct {
	calls      int
	confidence float64
	failCall   int
}

func (c *extensionCategorizer) Categorize(ctx context.Context, files []scan.FileRecord, targetRoot string, existingFolders []string) (*classify.Plan, error) {
	c.calls++
	if c.failCall > 0 && c.calls == c.failCall {
		return nil, errors.New("model unavailable")
	}
	plan := &classify.Plan{}
	for _, file := range files {
		if file.Extension == "" {
			plan.Uncategorized = append(plan.Uncategorized, file.Path)
			continue
		}
		plan.Proposals = append(plan.Proposals, organize.Proposal{
			SourcePath:      file.Path,
			DestinationPath: filepath.Join(targetRoot, file.Extension, file.Name),
			Confidence:      c.confidence,
		})
	}
	return plan, nil
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

func seedInbox(t *testing.T, names ...string) string {
	t.Helper()
	inbox := filepath.Join(t.TempDir(), "inbox")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(inbox, name), []byte("content of "+name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return inbox
}

func TestOrganizeMovesAndPersistsHistory(t *testing.T) {
	cfg := newTestConfig(t)
	inbox := seedInbox(t, "report.pdf", "notes.txt", "README")

	store := history.NewStore(cfg.HistoryPath(), logging.NewNop())
	cat := &extensionCategorizer{confidence: 0.9}
	p := pipeline.New(cfg, cat, store, logging.NewNop())

	summary, err := p.Organize(context.Background(), inbox)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if summary.Scanned != 3 || summary.Moved != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Uncategorized) != 1 || filepath.Base(summary.Uncategorized[0]) != "README" {
		t.Fatalf("unexpected uncategorized: %v", summary.Uncategorized)
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.LibraryDir, "pdf", "report.pdf")); err != nil {
		t.Fatalf("report.pdf not moved: %v", err)
	}

	entries, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Moves) != 2 {
		t.Fatalf("history not persisted correctly: %+v", entries)
	}
	if summary.EntryID != entries[0].ID {
		t.Fatalf("summary entry ID mismatch: %q vs %q", summary.EntryID, entries[0].ID)
	}
}

func TestOrganizeFiltersLowConfidence(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Organizer.ConfidenceThreshold = 0.7
	inbox := seedInbox(t, "maybe.txt")

	store := history.NewStore(cfg.HistoryPath(), logging.NewNop())
	cat := &extensionCategorizer{confidence: 0.4}
	p := pipeline.New(cfg, cat, store, logging.NewNop())

	summary, err := p.Organize(context.Background(), inbox)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if summary.Moved != 0 || summary.LowConfidence != 1 {
		t.Fatalf("low-confidence proposal not filtered: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(inbox, "maybe.txt")); err != nil {
		t.Fatalf("file should stay in place: %v", err)
	}

	entries, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("no entry should persist when nothing moved, got %d", len(entries))
	}
}

func TestOrganizeChunksBatches(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Organizer.ChunkSize = 2
	inbox := seedInbox(t, "a.txt", "b.txt", "c.txt", "d.txt", "e.txt")

	store := history.NewStore(cfg.HistoryPath(), logging.NewNop())
	cat := &extensionCategorizer{confidence: 0.9}
	p := pipeline.New(cfg, cat, store, logging.NewNop())

	summary, err := p.Organize(context.Background(), inbox)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if cat.calls != 3 {
		t.Fatalf("expected 3 chunks of 2, got %d calls", cat.calls)
	}
	if summary.Moved != 5 {
		t.Fatalf("chunked run incomplete: %+v", summary)
	}
}

func TestOrganizeChunkFailureIsIsolated(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Organizer.ChunkSize = 2
	inbox := seedInbox(t, "a.txt", "b.txt", "c.txt", "d.txt")

	store := history.NewStore(cfg.HistoryPath(), logging.NewNop())
	cat := &extensionCategorizer{confidence: 0.9, failCall: 1}
	p := pipeline.New(cfg, cat, store, logging.NewNop())

	summary, err := p.Organize(context.Background(), inbox)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if summary.Moved != 2 {
		t.Fatalf("surviving chunk should still move: %+v", summary)
	}
	if len(summary.Uncategorized) != 2 {
		t.Fatalf("failed chunk's files should stay behind: %v", summary.Uncategorized)
	}
}

func TestOrganizeEmptyDirectory(t *testing.T) {
	cfg := newTestConfig(t)
	inbox := seedInbox(t)

	store := history.NewStore(cfg.HistoryPath(), logging.NewNop())
	cat := &extensionCategorizer{confidence: 0.9}
	p := pipeline.New(cfg, cat, store, logging.NewNop())

	summary, err := p.Organize(context.Background(), inbox)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if summary.Scanned != 0 || cat.calls != 0 {
		t.Fatalf("empty run should not call the categorizer: %+v", summary)
	}
}
