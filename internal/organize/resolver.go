package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shelve/internal/services"
)

const maxProbe = 10000

// ResolveConflict decides the final destination for a planned move. When
// nothing occupies the destination the path comes back unchanged. Otherwise
// the outcome depends on the strategy: rename probes " (1)", " (2)", ...
// suffixes before the extension until a free name turns up, overwrite keeps
// the original path, and skip reports that the move should not happen.
func ResolveConflict(destination string, strategy Strategy) (string, Status, error) {
	if _, err := os.Lstat(destination); err != nil {
		if os.IsNotExist(err) {
			return destination, StatusPending, nil
		}
		return "", StatusFailed, services.Wrap(services.ErrTransient, "organize", "resolve", "stat destination", err)
	}

	switch strategy {
	case StrategyOverwrite:
		return destination, StatusConflict, nil
	case StrategySkip:
		return destination, StatusSkipped, nil
	case StrategyRename:
		resolved, err := nextFreePath(destination)
		if err != nil {
			return "", StatusFailed, err
		}
		return resolved, StatusPending, nil
	default:
		return "", StatusFailed, services.Wrap(services.ErrValidation, "organize", "resolve",
			fmt.Sprintf("unknown conflict strategy %q", strategy), nil)
	}
}

// nextFreePath appends an incrementing counter before the extension until
// the candidate no longer exists.
func nextFreePath(path string) (string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for i := 1; i <= maxProbe; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Lstat(candidate); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", services.Wrap(services.ErrTransient, "organize", "resolve", "probe candidate path", err)
		}
	}
	return "", services.Wrap(services.ErrValidation, "organize", "resolve",
		fmt.Sprintf("no free name for %s after %d attempts", path, maxProbe), nil)
}

// backupPath picks a non-colliding "<name>.backup" sibling for a file that
// is about to be overwritten.
func backupPath(path string) (string, error) {
	candidate := path + ".backup"
	if _, err := os.Lstat(candidate); err != nil {
		if os.IsNotExist(err) {
			return candidate, nil
		}
		return "", services.Wrap(services.ErrTransient, "organize", "backup", "probe backup path", err)
	}
	for i := 1; i <= maxProbe; i++ {
		numbered := fmt.Sprintf("%s.backup (%d)", path, i)
		if _, err := os.Lstat(numbered); err != nil {
			if os.IsNotExist(err) {
				return numbered, nil
			}
			return "", services.Wrap(services.ErrTransient, "organize", "backup", "probe backup path", err)
		}
	}
	return "", services.Wrap(services.ErrValidation, "organize", "backup",
		fmt.Sprintf("no free backup name for %s", path), nil)
}
