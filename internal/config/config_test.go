package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelve/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Organizer.ConflictStrategy != "rename" {
		t.Errorf("default strategy = %q, want rename", cfg.Organizer.ConflictStrategy)
	}
	if cfg.Organizer.ChunkSize != 50 {
		t.Errorf("default chunk size = %d, want 50", cfg.Organizer.ChunkSize)
	}
	if cfg.Watcher.DebounceMs != 3000 {
		t.Errorf("default debounce = %d, want 3000", cfg.Watcher.DebounceMs)
	}
}

func TestLoadParsesAndExpands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
library_dir = "` + filepath.Join(dir, "lib") + `"
data_dir = "` + filepath.Join(dir, "data") + `"

[organizer]
conflict_strategy = "SKIP"
confidence_threshold = 0.5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Organizer.ConflictStrategy != "skip" {
		t.Errorf("strategy = %q, want skip (lowercased)", cfg.Organizer.ConflictStrategy)
	}
	if !filepath.IsAbs(cfg.Paths.LibraryDir) {
		t.Errorf("library dir not absolute: %q", cfg.Paths.LibraryDir)
	}
}

func TestValidateRejectsBadStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.Organizer.ConflictStrategy = "prompt"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "conflict_strategy") {
		t.Fatalf("expected strategy error, got %v", err)
	}
}

func TestValidateRejectsBadConfidence(t *testing.T) {
	cfg := config.Default()
	cfg.Organizer.ConfidenceThreshold = 1.5
	if cfg.Validate() == nil {
		t.Fatal("expected confidence error")
	}
}

func TestRequireClassifier(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireClassifier(); err == nil {
		t.Fatal("expected error when api key missing")
	}
	cfg.Classifier.APIKey = "sk-test"
	if err := cfg.RequireClassifier(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteSampleRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error on second write")
	}

	// The sample must itself be loadable.
	if _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
