package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelve/internal/logging"
	"shelve/internal/watch"
)

func newWatcher(t *testing.T, root string) *watch.Watcher {
	t.Helper()
	w := watch.New(logging.NewNop(), watch.Options{
		DebounceDelay: 300 * time.Millisecond,
		SettleDelay:   40 * time.Millisecond,
	})
	if err := w.Start([]string{root}); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitForBatch(t *testing.T, w *watch.Watcher, timeout time.Duration) []watch.Event {
	t.Helper()
	select {
	case batch := <-w.Batches():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func TestBurstCoalescesToOneBatch(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	path := filepath.Join(root, "download.bin")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, make([]byte, (i+1)*100), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	batch := waitForBatch(t, w, 3*time.Second)
	if len(batch) != 1 {
		t.Fatalf("expected one coalesced event, got %d", len(batch))
	}
	if batch[0].Path != path {
		t.Fatalf("unexpected event: %+v", batch[0])
	}

	select {
	case extra := <-w.Batches():
		t.Fatalf("unexpected second batch: %v", extra)
	case <-time.After(600 * time.Millisecond):
	}
}

func TestStartIsIdempotent(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	if err := w.Start([]string{root}); err != nil {
		t.Fatalf("second start: %v", err)
	}

	path := filepath.Join(root, "once.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	batch := waitForBatch(t, w, 3*time.Second)
	if len(batch) != 1 {
		t.Fatalf("double start must not duplicate events, got %d", len(batch))
	}
}

func TestStopFlushesPending(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	path := filepath.Join(root, "pending.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Wait past the settle window but stop before the debounce fires.
	time.Sleep(150 * time.Millisecond)
	w.Stop()

	select {
	case batch := <-w.Batches():
		if len(batch) != 1 || batch[0].Path != path {
			t.Fatalf("unexpected final batch: %v", batch)
		}
	default:
		t.Fatal("stop did not flush pending events")
	}

	select {
	case extra := <-w.Batches():
		t.Fatalf("pending flushed twice: %v", extra)
	default:
	}
}

func TestHiddenFilesAreFiltered(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	visible := filepath.Join(root, "visible.txt")
	if err := os.WriteFile(visible, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	batch := waitForBatch(t, w, 3*time.Second)
	if len(batch) != 1 || batch[0].Path != visible {
		t.Fatalf("expected only the visible file, got %v", batch)
	}
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	sub := filepath.Join(root, "incoming")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the loop a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "nested.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	batch := waitForBatch(t, w, 3*time.Second)
	found := false
	for _, ev := range batch {
		if ev.Path == path {
			found = true
		}
	}
	if !found {
		t.Fatalf("event for nested file missing: %v", batch)
	}
}
