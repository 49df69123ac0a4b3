package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shelve/internal/logging"
	"shelve/internal/services"
)

// Scanner discovers files and builds their records.
type Scanner struct {
	logger *slog.Logger
}

// New creates a scanner.
func New(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logging.WithComponent(logger, "scanner")}
}

// Scan enumerates the directory and returns a record per regular file that
// does not match an ignore pattern. The top-level directory must be readable;
// unreadable subdirectories are logged and skipped without aborting sibling
// traversal.
func (s *Scanner) Scan(ctx context.Context, dir string, opts Options) ([]FileRecord, error) {
	absolute, err := filepath.Abs(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scanner", "resolve directory", dir, err)
	}

	info, err := os.Stat(absolute)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "scanner", "stat directory", absolute, err)
		}
		return nil, services.Wrap(services.ErrValidation, "scanner", "stat directory", absolute, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "scanner", "stat directory", absolute+" is not a directory", nil)
	}

	entries, err := os.ReadDir(absolute)
	if err != nil {
		// Unreadable top-level is fatal; the caller decides recovery.
		return nil, services.Wrap(services.ErrValidation, "scanner", "read directory", absolute, err)
	}

	var records []FileRecord
	s.collect(ctx, absolute, entries, 1, opts, &records)
	return records, ctx.Err()
}

func (s *Scanner) collect(ctx context.Context, dir string, entries []os.DirEntry, depth int, opts Options, records *[]FileRecord) {
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if !opts.Recursive {
				continue
			}
			if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
				continue
			}
			children, err := os.ReadDir(path)
			if err != nil {
				// Permission problems on a subdirectory skip it, never the scan.
				s.logger.Warn("skipping unreadable directory", logging.String("path", path), logging.Error(err))
				continue
			}
			s.collect(ctx, path, children, depth+1, opts, records)
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if shouldIgnore(entry.Name(), opts.IgnorePatterns) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("skipping unreadable file", logging.String("path", path), logging.Error(err))
			continue
		}
		*records = append(*records, s.buildRecord(path, info, opts))
	}
}

// shouldIgnore matches two pattern forms only: exact file name and *.ext
// suffix. General globbing is intentionally unsupported.
func shouldIgnore(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "*.") {
			if strings.HasSuffix(name, pattern[1:]) {
				return true
			}
			continue
		}
		if name == pattern {
			return true
		}
	}
	return false
}
