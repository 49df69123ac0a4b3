package watch

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultDebounceDelay = 3 * time.Second
	defaultSettleDelay   = 500 * time.Millisecond
)

// Directories whose contents are never worth organizing.
var builtinIgnoreDirs = map[string]struct{}{
	".git":         {},
	".svn":         {},
	".hg":          {},
	"node_modules": {},
}

// Options tunes watcher timing and filtering.
type Options struct {
	// DebounceDelay is the quiet period after the last settled event
	// before a batch is emitted. The timer resets on every new event.
	DebounceDelay time.Duration

	// SettleDelay is how long a file's size and mtime must hold still
	// before the watcher considers it finished being written.
	SettleDelay time.Duration

	// IgnorePatterns excludes paths by exact base name or "*.ext" suffix,
	// on top of the built-in hidden-file and VCS filtering.
	IgnorePatterns []string
}

func (o *Options) applyDefaults() {
	if o.DebounceDelay <= 0 {
		o.DebounceDelay = defaultDebounceDelay
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = defaultSettleDelay
	}
}

// shouldIgnore reports whether a path is filtered before reaching the
// pending buffer. Hidden files and directories are always excluded.
func (o *Options) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if _, ok := builtinIgnoreDirs[base]; ok {
		return true
	}
	for _, pattern := range o.IgnorePatterns {
		if pattern == base {
			return true
		}
		if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(base, pattern[1:]) {
			return true
		}
	}
	return false
}
