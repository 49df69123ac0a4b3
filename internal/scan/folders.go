package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shelve/internal/logging"
	"shelve/internal/services"
)

// FolderOptions controls the folder-structure query.
type FolderOptions struct {
	// MaxDepth limits how deep below the root folders are collected.
	MaxDepth int
	// Limit caps the number of folders returned.
	Limit int
	// IncludeEmpty also returns directories with no entries.
	IncludeEmpty bool
}

const (
	defaultFolderDepth = 3
	defaultFolderLimit = 100
)

// ListFolders enumerates existing subdirectories of root, relative to root,
// sorted by depth then name. Folders with no entries are excluded unless
// IncludeEmpty is set. The result tells the categorizer which library
// folders are already in use.
func (s *Scanner) ListFolders(ctx context.Context, root string, opts FolderOptions) ([]string, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultFolderDepth
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultFolderLimit
	}

	absolute, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scanner", "resolve folder root", root, err)
	}
	if _, err := os.Stat(absolute); err != nil {
		if os.IsNotExist(err) {
			// A library root that does not exist yet simply has no folders.
			return nil, nil
		}
		return nil, services.Wrap(services.ErrValidation, "scanner", "stat folder root", absolute, err)
	}

	type folder struct {
		rel   string
		depth int
	}
	var found []folder

	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		if ctx.Err() != nil || depth > opts.MaxDepth {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("skipping unreadable folder", logging.String("path", dir), logging.Error(err))
			return
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			children, err := os.ReadDir(path)
			if err != nil {
				s.logger.Warn("skipping unreadable folder", logging.String("path", path), logging.Error(err))
				continue
			}
			if len(children) > 0 || opts.IncludeEmpty {
				rel, err := filepath.Rel(absolute, path)
				if err != nil {
					continue
				}
				found = append(found, folder{rel: rel, depth: depth})
			}
			walk(path, depth+1)
		}
	}
	walk(absolute, 1)

	sort.Slice(found, func(i, j int) bool {
		if found[i].depth != found[j].depth {
			return found[i].depth < found[j].depth
		}
		return found[i].rel < found[j].rel
	})

	if len(found) > opts.Limit {
		found = found[:opts.Limit]
	}
	results := make([]string, len(found))
	for i, f := range found {
		results[i] = f.rel
	}
	return results, ctx.Err()
}
