package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"shelve/internal/logging"
	"shelve/internal/services"
)

// Watcher monitors directories and emits batches of settled events. All
// state (pending buffer, settle tracking, debounce timer) is owned by a
// single goroutine; external callers only touch channels.
type Watcher struct {
	opts   Options
	logger *slog.Logger

	batches chan []Event
	errs    chan error
	settled chan string

	mu      sync.Mutex
	running bool
	fsw     *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// settlingFile tracks a file whose size may still be changing.
type settlingFile struct {
	evType  EventType
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a watcher. Call Start to begin monitoring.
func New(logger *slog.Logger, opts Options) *Watcher {
	opts.applyDefaults()
	return &Watcher{
		opts:    opts,
		logger:  logging.WithComponent(logger, "watch"),
		batches: make(chan []Event, 16),
		errs:    make(chan error, 10),
		settled: make(chan string, 64),
	}
}

// Batches delivers one slice per quiet period, containing the coalesced
// events since the previous batch.
func (w *Watcher) Batches() <-chan []Event { return w.batches }

// Errors surfaces watch failures that did not stop the loop.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Start begins monitoring the given paths. Calling Start while already
// running is a no-op.
func (w *Watcher) Start(paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if len(paths) == 0 {
		return services.Wrap(services.ErrValidation, "watch", "start", "no paths to watch", nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrTransient, "watch", "start", "create filesystem watcher", err)
	}
	for _, path := range paths {
		if err := w.addTree(fsw, path); err != nil {
			_ = fsw.Close()
			return err
		}
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.running = true
	w.wg.Add(1)
	go w.run(fsw, w.done)

	w.logger.Info("watching", logging.Int("paths", len(paths)))
	return nil
}

// Stop cancels the debounce timer, flushes anything still pending as a
// final batch, and returns once the loop has exited. Safe to call more
// than once or before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.done)
	w.wg.Wait()
	_ = w.fsw.Close()
	w.fsw = nil
	w.running = false
	w.logger.Info("watch stopped")
}

// addTree registers path and, for directories, every non-ignored
// subdirectory beneath it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "watch", "start", "stat watch path", err)
	}
	if !info.IsDir() {
		root = filepath.Dir(root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unreadable path", logging.String("path", path), logging.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.opts.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("cannot watch directory", logging.String("path", path), logging.Error(err))
		}
		return nil
	})
}

// run is the single owner of the pending map, settle map, and debounce
// timer. Settle timers re-enter the loop through the settled channel, so
// no state is ever mutated from a timer goroutine.
func (w *Watcher) run(fsw *fsnotify.Watcher, done chan struct{}) {
	defer w.wg.Done()

	pending := make(map[string]Event)
	settling := make(map[string]*settlingFile)

	debounce := time.NewTimer(w.opts.DebounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}
	resetDebounce := func() {
		if !debounce.Stop() {
			select {
			case <-debounce.C:
			default:
			}
		}
		debounce.Reset(w.opts.DebounceDelay)
	}

	flush := func(shutdown bool) {
		if len(pending) == 0 {
			return
		}
		batch := make([]Event, 0, len(pending))
		for _, ev := range pending {
			batch = append(batch, ev)
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })

		if shutdown {
			select {
			case w.batches <- batch:
			default:
				w.logger.Warn("final batch dropped, consumer not reading", logging.Int("events", len(batch)))
			}
		} else {
			select {
			case w.batches <- batch:
			case <-done:
				// keep pending; the shutdown flush delivers it
				return
			}
		}
		pending = make(map[string]Event)
	}

	for {
		select {
		case <-done:
			for _, entry := range settling {
				entry.timer.Stop()
			}
			debounce.Stop()
			flush(true)
			return

		case raw, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleRaw(fsw, raw, settling, pending, done)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.reportError(err)

		case path := <-w.settled:
			ev, ready := w.checkSettled(path, settling, done)
			if ready {
				pending[path] = ev
				resetDebounce()
			}

		case <-debounce.C:
			flush(false)
		}
	}
}

func (w *Watcher) handleRaw(fsw *fsnotify.Watcher, raw fsnotify.Event, settling map[string]*settlingFile, pending map[string]Event, done chan struct{}) {
	path := raw.Name
	if w.opts.shouldIgnore(path) {
		return
	}

	if raw.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if entry, ok := settling[path]; ok {
			entry.timer.Stop()
			delete(settling, path)
		}
		delete(pending, path)
		return
	}

	if raw.Op&fsnotify.Create != 0 {
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.watchNewDir(fsw, path, settling, done)
			return
		}
		w.startSettling(path, EventAdd, settling, done)
		return
	}

	if raw.Op&fsnotify.Write != 0 {
		evType := EventChange
		if entry, ok := settling[path]; ok {
			evType = entry.evType
		}
		w.startSettling(path, evType, settling, done)
	}
}

// watchNewDir registers a freshly created directory and settles any files
// that landed in it before the watch took effect.
func (w *Watcher) watchNewDir(fsw *fsnotify.Watcher, dir string, settling map[string]*settlingFile, done chan struct{}) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if w.opts.shouldIgnore(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				w.logger.Warn("cannot watch directory", logging.String("path", path), logging.Error(err))
			}
			return nil
		}
		w.startSettling(path, EventAdd, settling, done)
		return nil
	})
}

func (w *Watcher) startSettling(path string, evType EventType, settling map[string]*settlingFile, done chan struct{}) {
	if entry, ok := settling[path]; ok {
		entry.timer.Stop()
		evType = entry.evType
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(settling, path)
		return
	}
	if info.IsDir() {
		return
	}

	settling[path] = &settlingFile{
		evType:  evType,
		size:    info.Size(),
		modTime: info.ModTime(),
		timer:   w.settleTimer(path, done),
	}
}

// checkSettled re-stats a file after the settle window. A file still
// growing gets another window; a stable file yields an event.
func (w *Watcher) checkSettled(path string, settling map[string]*settlingFile, done chan struct{}) (Event, bool) {
	entry, ok := settling[path]
	if !ok {
		return Event{}, false
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(settling, path)
		return Event{}, false
	}
	if info.Size() != entry.size || !info.ModTime().Equal(entry.modTime) {
		entry.size = info.Size()
		entry.modTime = info.ModTime()
		entry.timer = w.settleTimer(path, done)
		return Event{}, false
	}

	delete(settling, path)
	return Event{Type: entry.evType, Path: path, Timestamp: time.Now()}, true
}

func (w *Watcher) settleTimer(path string, done chan struct{}) *time.Timer {
	return time.AfterFunc(w.opts.SettleDelay, func() {
		select {
		case w.settled <- path:
		case <-done:
		}
	})
}

func (w *Watcher) reportError(err error) {
	select {
	case w.errs <- err:
	default:
		w.logger.Warn("watch error dropped", logging.Error(err))
	}
}
