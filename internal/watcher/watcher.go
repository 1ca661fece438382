// Package watcher reports changes to a deliverable's files. Bursts of file
// system events are debounced into one Change.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/newhook/swereview/internal/logging"
)

// Config configures a watcher.
type Config struct {
	// Dirs are watched. A directory created inside a watched directory is
	// watched from then on, so a deliverable's logs dir may appear late.
	Dirs []string
	// DebounceDur is the quiet period that ends a burst.
	DebounceDur time.Duration
	// Match selects relevant paths. Nil accepts everything except Ignored paths.
	Match func(path string) bool
}

// DefaultConfig returns a config watching dirs with a 300ms debounce.
func DefaultConfig(dirs ...string) Config {
	return Config{Dirs: dirs, DebounceDur: 300 * time.Millisecond}
}

// Change lists the paths touched during one burst, sorted.
type Change struct {
	Paths []string
	At    time.Time
}

// Watcher watches directories and emits debounced changes.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	changes chan Change
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	stopped bool
}

// New creates a watcher. Call Start to begin receiving changes.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Dirs) == 0 {
		return nil, errors.New("watcher: no directories to watch")
	}
	if cfg.DebounceDur <= 0 {
		cfg.DebounceDur = 300 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		changes: make(chan Change, 1),
		done:    make(chan struct{}),
		pending: make(map[string]bool),
	}, nil
}

// Changes returns the channel of debounced changes. It is closed by Stop.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start adds the directories and begins processing events.
func (w *Watcher) Start() error {
	for _, dir := range w.cfg.Dirs {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching and closes the Changes channel.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	close(w.changes)
	w.mu.Unlock()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			if evt.Has(fsnotify.Create) && w.addDir(evt.Name) {
				continue
			}
			if w.relevant(evt.Name) {
				w.record(evt.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("file watcher error", "error", err)
		}
	}
}

// addDir starts watching a newly created directory and records the relevant
// files already inside it, since they may have been written before the watch
// was in place. It returns false when path is not a directory.
func (w *Watcher) addDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if Ignored(path) {
		return true
	}
	if err := w.fsw.Add(path); err != nil {
		logging.Warn("failed to watch new directory", "path", path, "error", err)
		return true
	}
	logging.Debug("watching new directory", "path", path)

	w.record(path)
	entries, err := os.ReadDir(path)
	if err != nil {
		return true
	}
	for _, e := range entries {
		child := filepath.Join(path, e.Name())
		if e.IsDir() {
			w.addDir(child)
		} else if w.relevant(child) {
			w.record(child)
		}
	}
	return true
}

func (w *Watcher) relevant(path string) bool {
	if Ignored(path) {
		return false
	}
	if w.cfg.Match != nil {
		return w.cfg.Match(path)
	}
	return true
}

func (w *Watcher) record(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.DebounceDur, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || len(w.pending) == 0 {
		return
	}

	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	change := Change{Paths: paths, At: time.Now()}

	select {
	case w.changes <- change:
		w.pending = make(map[string]bool)
	default:
		// Consumer is busy; keep accumulating and retry after another quiet period.
		w.timer = time.AfterFunc(w.cfg.DebounceDur, w.flush)
	}
}

// Ignored reports whether path is workspace bookkeeping or an editor temp file.
func Ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, ".#"),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		base == "4913":
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".swereview" || part == ".git" {
			return true
		}
	}
	return false
}
