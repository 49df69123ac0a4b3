package dupes

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the cache layout changes; a mismatched cache
// is discarded and rebuilt rather than migrated, since it only holds
// recomputable fingerprints.
const schemaVersion = 1

// Cache persists content fingerprints keyed by path, size, and mtime.
// All operations are best-effort: the detector falls back to hashing when
// the cache misbehaves.
type Cache struct {
	db   *sql.DB
	path string
}

// OpenCache initializes or connects to the hash cache database.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, path: path}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return c.createSchema(ctx)
	}

	var version int
	if err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return c.reset(ctx)
	}
	return nil
}

func (c *Cache) createSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (c *Cache) reset(ctx context.Context) error {
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS content_hashes",
		"DROP TABLE IF EXISTS schema_version",
	} {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset cache: %w", err)
		}
	}
	return c.createSchema(ctx)
}

// Lookup returns a cached fingerprint if the file's size and mtime still
// match what was hashed.
func (c *Cache) Lookup(ctx context.Context, path string, size int64, modTime time.Time) (string, bool) {
	var hash string
	err := c.db.QueryRowContext(ctx,
		"SELECT hash FROM content_hashes WHERE path = ? AND size = ? AND mtime_ns = ?",
		path, size, modTime.UnixNano(),
	).Scan(&hash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return "", false
		}
		return "", false
	}
	return hash, true
}

// Store records a fingerprint, replacing any stale entry for the same path.
func (c *Cache) Store(ctx context.Context, path string, size int64, modTime time.Time, hash string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO content_hashes (path, size, mtime_ns, hash) VALUES (?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime_ns = excluded.mtime_ns, hash = excluded.hash`,
		path, size, modTime.UnixNano(), hash,
	)
	if err != nil {
		return fmt.Errorf("store hash: %w", err)
	}
	return nil
}
