package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"shelve/internal/logging"
	"shelve/internal/services"
)

const lockRetryDelay = 50 * time.Millisecond

// Store owns the on-disk history log.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewStore creates a store for the log at path. The file and its parent
// directory are created lazily on first persist.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.WithComponent(logger, "history"),
	}
}

// Persist inserts the entry at the head of the log and rewrites the backing
// file atomically. Entries without moves are rejected so the log never
// records an operation that accomplished nothing.
func (s *Store) Persist(ctx context.Context, entry *Entry) error {
	if entry == nil || len(entry.Moves) == 0 {
		return services.Wrap(services.ErrValidation, "history", "persist", "entry has no moves", nil)
	}

	if err := s.withLock(ctx, func() error {
		entries := s.load()
		entries = append([]*Entry{entry}, entries...)
		return s.write(entries)
	}); err != nil {
		return services.Wrap(services.ErrTransient, "history", "persist", "write history log", err)
	}
	return nil
}

// Recent returns up to limit entries, most recent first. A limit <= 0
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	var entries []*Entry
	if err := s.withLock(ctx, func() error {
		entries = s.load()
		return nil
	}); err != nil {
		return nil, services.Wrap(services.ErrTransient, "history", "read", "lock history log", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	entries, err := s.Recent(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "history", "get", fmt.Sprintf("no entry %s", id), nil)
}

// Delete removes the entry with the given ID and rewrites the log.
func (s *Store) Delete(ctx context.Context, id string) error {
	found := false
	if err := s.withLock(ctx, func() error {
		entries := s.load()
		remaining := entries[:0]
		for _, entry := range entries {
			if entry.ID == id {
				found = true
				continue
			}
			remaining = append(remaining, entry)
		}
		if !found {
			return nil
		}
		return s.write(remaining)
	}); err != nil {
		return services.Wrap(services.ErrTransient, "history", "delete", "rewrite history log", err)
	}
	if !found {
		return services.Wrap(services.ErrNotFound, "history", "delete", fmt.Sprintf("no entry %s", id), nil)
	}
	return nil
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return err
	}
	if !locked {
		return fmt.Errorf("history log is locked by another process")
	}
	defer func() {
		_ = s.lock.Unlock()
	}()
	return fn()
}

// load reads every entry from disk. Missing or corrupt storage degrades to
// an empty log; history must never become load-bearing for move execution.
func (s *Store) load() []*Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("history log unreadable, treating as empty", logging.String("path", s.path), logging.Error(err))
		}
		return nil
	}
	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("history log corrupt, treating as empty", logging.String("path", s.path), logging.Error(err))
		return nil
	}
	return entries
}

// write rewrites the whole log through a temp file so a partial write never
// corrupts previously stored entries.
func (s *Store) write(entries []*Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("swap history log: %w", err)
	}
	return nil
}
