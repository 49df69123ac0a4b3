//go:build linux

package scan

import (
	"os"
	"syscall"
	"time"
)

// createdTime approximates file creation time from the inode change time.
// Linux does not expose birth time through os.FileInfo.
func createdTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
	}
	return info.ModTime()
}
