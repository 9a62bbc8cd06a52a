// Package watch evicts cached analysis results when source files change
// on disk. It watches every directory under the sandbox root and feeds
// debounced change events to an invalidation callback.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/treescan/internal/debug"
	"github.com/standardbeagle/treescan/internal/lang"
)

// Invalidator receives the absolute path of a changed source file.
type Invalidator func(path string)

// skipDirs are directory names never worth watching. Dot-directories are
// skipped separately.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"__pycache__":  true,
}

// Watcher debounces filesystem events and invalidates cache entries for
// changed source files. One Watcher serves one sandbox root.
type Watcher struct {
	fs         *fsnotify.Watcher
	root       string
	invalidate Invalidator
	globs      []string
	debounce   time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher for root. Only files matching a known source
// extension reach the invalidator.
func New(root string, debounceMs int, invalidate Invalidator) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exts := lang.SourceExtensions()
	globs := make([]string, len(exts))
	for i, ext := range exts {
		globs[i] = "**/*" + ext
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fs:         fs,
		root:       root,
		invalidate: invalidate,
		globs:      globs,
		debounce:   time.Duration(debounceMs) * time.Millisecond,
		pending:    make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start adds watches for every directory under the root and begins
// processing events.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.processEvents()
	debug.Log("WATCH", "watching %s, debounce %s\n", w.root, w.debounce)
	return nil
}

// Stop tears the watcher down. Events pending inside the debounce window
// are dropped; the cache they would have evicted is being discarded with
// the process anyway.
func (w *Watcher) Stop() {
	w.cancel()
	w.fs.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) addWatches(root string) error {
	// Resolved real paths guard against symlink cycles.
	visited := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		if err := w.fs.Add(path); err != nil {
			debug.Log("WATCH", "cannot watch %s: %v\n", path, err)
		}
		return nil
	})
}

func (w *Watcher) skipDir(path string) bool {
	name := filepath.Base(path)
	if path != w.root && strings.HasPrefix(name, ".") {
		return true
	}
	return skipDirs[name]
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			debug.Log("WATCH", "watch error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if event.Op&relevant == 0 {
		return
	}

	path := event.Name
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		// New directories need their own watch; everything else about
		// them is noise.
		if event.Op&fsnotify.Create != 0 && !w.skipDir(path) {
			if err := w.fs.Add(path); err != nil {
				debug.Log("WATCH", "cannot watch new dir %s: %v\n", path, err)
			}
		}
		return
	}

	if !w.isSource(path) {
		return
	}
	w.enqueue(path)
}

// isSource matches the path against the source-extension globs. Removed
// files cannot be stat-ed, so matching is purely name based.
func (w *Watcher) isSource(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, glob := range w.globs {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(batch) == 0 || w.ctx.Err() != nil {
		return
	}
	debug.Log("WATCH", "invalidating %d changed files\n", len(batch))
	for path := range batch {
		w.invalidate(path)
	}
}
