package history_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shelve/internal/history"
	"shelve/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUndoRestoresMovedFiles(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "inbox", "report.txt")
	dst := filepath.Join(root, "library", "Documents", "report.txt")
	writeFile(t, src, "quarterly numbers")

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(src, dst); err != nil {
		t.Fatal(err)
	}

	store := history.NewStore(filepath.Join(root, "history.json"), logging.NewNop())
	ctx := context.Background()

	entry := history.NewEntry(filepath.Join(root, "inbox"), filepath.Join(root, "library"))
	entry.Append(src, dst)
	if err := store.Persist(ctx, entry); err != nil {
		t.Fatalf("persist: %v", err)
	}

	result, err := store.Undo(ctx, entry.ID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if result.Restored != 1 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("file not restored: %v", err)
	}
	if string(data) != "quarterly numbers" {
		t.Fatalf("restored content mismatch: %q", data)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("destination should be gone, stat err = %v", err)
	}

	entries, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entry should be removed after full undo, got %d", len(entries))
	}
}

func TestUndoSkipsMissingDestinations(t *testing.T) {
	root := t.TempDir()
	srcA := filepath.Join(root, "inbox", "a.txt")
	dstA := filepath.Join(root, "library", "a.txt")
	srcB := filepath.Join(root, "inbox", "b.txt")
	dstB := filepath.Join(root, "library", "b.txt")

	writeFile(t, dstA, "still here")
	// dstB was moved away by someone else; only a.txt can be restored.

	store := history.NewStore(filepath.Join(root, "history.json"), logging.NewNop())
	ctx := context.Background()

	entry := history.NewEntry(filepath.Join(root, "inbox"), filepath.Join(root, "library"))
	entry.Append(srcA, dstA)
	entry.Append(srcB, dstB)
	if err := store.Persist(ctx, entry); err != nil {
		t.Fatalf("persist: %v", err)
	}

	result, err := store.Undo(ctx, entry.ID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if result.Restored != 1 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := os.Stat(srcA); err != nil {
		t.Fatalf("a.txt not restored: %v", err)
	}

	entries, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("skips alone should not keep the entry, got %d", len(entries))
	}
}
