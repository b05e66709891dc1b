// Package watch turns filesystem activity in a repository into refresh
// triggers.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a refresh
// is signalled.
const DefaultDebounce = 600 * time.Millisecond

// maxWatchedDirs bounds the number of working tree directories registered
// with the OS.
const maxWatchedDirs = 4096

// Watcher signals when the working tree or the git directory changes.
// Bursts of events collapse into one signal once activity settles.
type Watcher struct {
	started  bool
	waiting  bool
	workTree string
	gitDir   string
	debounce time.Duration
	events   chan struct{}
	done     chan struct{}
	paths    map[string]struct{}
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	logf     func(string, ...any)
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New returns a stopped Watcher.
func New(logf func(string, ...any), opts ...Option) *Watcher {
	w := &Watcher{logf: logf, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Started reports whether the watcher is running.
func (w *Watcher) Started() bool {
	return w.started
}

// Start watches workTree recursively, skipping .git directories, and the top
// level of gitDir, where the index and HEAD live. An empty gitDir is allowed.
func (w *Watcher) Start(workTree, gitDir string) error {
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.started = true
	w.fsw = fsw
	w.workTree = filepath.Clean(workTree)
	w.gitDir = gitDir
	if gitDir != "" {
		w.gitDir = filepath.Clean(gitDir)
	}
	w.events = make(chan struct{}, 1)
	w.done = make(chan struct{})
	w.paths = make(map[string]struct{})

	w.addWatchTree(w.workTree)
	w.addWatchDir(w.gitDir)

	go w.run()
	return nil
}

// Stop stops the watcher. Pending signals are dropped.
func (w *Watcher) Stop() {
	if !w.started {
		return
	}
	close(w.done)
	w.started = false
	if w.fsw != nil {
		_ = w.fsw.Close()
	}
}

// NextEvent returns the signal channel unless a receiver is already waiting
// on it, in which case it returns nil.
func (w *Watcher) NextEvent() <-chan struct{} {
	if w.events == nil || w.waiting {
		return nil
	}
	w.waiting = true
	return w.events
}

// ResetWaiting clears the waiting flag after a signal is processed.
func (w *Watcher) ResetWaiting() {
	w.waiting = false
}

// WatchedDirs returns the number of registered directories.
func (w *Watcher) WatchedDirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

func (w *Watcher) signal() {
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.events <- struct{}{}:
	default:
	}
}

func (w *Watcher) run() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchNewDir(event.Name)
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			w.signal()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.debugf("watcher error: %v", err)
		}
	}
}

// relevant filters out attribute-only changes and git lock files, which come
// and go around every index write.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.gitDir != "" && isUnder(event.Name, w.gitDir) {
		return !strings.HasSuffix(event.Name, ".lock")
	}
	return !insideDotGit(event.Name, w.workTree)
}

func (w *Watcher) maybeWatchNewDir(path string) {
	if !isUnder(path, w.workTree) || insideDotGit(path, w.workTree) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.addWatchTree(path)
}

func (w *Watcher) addWatchDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return true
	}
	if len(w.paths) >= maxWatchedDirs {
		w.debugf("watcher limit of %d directories reached, skipping %s", maxWatchedDirs, path)
		return false
	}
	if err := w.fsw.Add(path); err != nil {
		w.debugf("watcher add failed for %s: %v", path, err)
		return false
	}
	w.paths[path] = struct{}{}
	return true
}

func (w *Watcher) addWatchTree(root string) {
	if root == "" {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if !w.addWatchDir(path) {
			return filepath.SkipDir
		}
		return nil
	})
}

func (w *Watcher) debugf(format string, args ...any) {
	if w.logf == nil {
		return
	}
	w.logf(format, args...)
}

func isUnder(path, root string) bool {
	if path == "" || root == "" {
		return false
	}
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func insideDotGit(path, workTree string) bool {
	rel, err := filepath.Rel(workTree, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == ".git" {
			return true
		}
	}
	return false
}
