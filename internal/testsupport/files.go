package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shelve/internal/dupes"
)

// WriteFile creates a file (and any missing parent directories) with the
// given content and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteFileSize creates a file of exactly size bytes filled with a
// repeating byte, for duplicate-detection fixtures.
func WriteFileSize(t *testing.T, dir, name string, size int, fill byte) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = fill
	}
	return WriteFile(t, dir, name, string(data))
}

// MustOpenCache opens a hash cache in a temp location and closes it when
// the test ends.
func MustOpenCache(t *testing.T) *dupes.Cache {
	t.Helper()
	cache, err := dupes.OpenCache(filepath.Join(t.TempDir(), "hashes.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() {
		_ = cache.Close()
	})
	return cache
}
