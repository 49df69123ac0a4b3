package fileutil

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// renameFn is swappable so tests can simulate cross-device conditions.
var renameFn = os.Rename

// SetRenameForTests replaces the rename primitive and returns a restore
// function.
func SetRenameForTests(fn func(src, dst string) error) (restore func()) {
	previous := renameFn
	renameFn = fn
	return func() { renameFn = previous }
}

// MoveFile renames src to dst. When the rename fails because source and
// destination live on different filesystems, it falls back to a verified
// copy followed by source removal. A failed copy never deletes the source.
func MoveFile(src, dst string) error {
	err := renameFn(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}

	if err := CopyVerified(src, dst); err != nil {
		return fmt.Errorf("cross-device copy: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}
