// Package watch re-analyzes source files as they change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/parser"
)

// Watcher monitors a directory tree and triggers re-analysis for
// changed source files after a debounce window.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string
	callback  func(path string)
	mu        sync.Mutex
	pending   map[string]time.Time
}

// NewWatcher creates a new file watcher rooted at path.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function to call when a file changes. The
// callback runs sequentially; a slow analysis delays later files
// rather than racing them.
func (w *Watcher) SetCallback(cb func(path string)) {
	w.callback = cb
}

// Start begins watching for file changes. It blocks until the context
// is cancelled or the underlying watcher closes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.path); err != nil {
		return err
	}

	color.Cyan("Watching for changes in %s...", w.path)
	color.Cyan("Press Ctrl+C to stop")
	fmt.Println()

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.Red("Watch error: %v", err)
		}
	}
}

// addTree registers every non-excluded directory under root.
func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		for _, excluded := range w.config.Exclude.Dirs {
			if info.Name() == excluded {
				return filepath.SkipDir
			}
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	path := event.Name

	// Newly created directories join the watch; fsnotify does not
	// recurse on its own.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addTree(path)
			return
		}
	}

	if w.config.ShouldExclude(path) {
		return
	}
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced drains pending changes once they go quiet.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, path := range w.takeReady() {
				w.runCallback(path)
			}
		}
	}
}

// takeReady removes and returns files that have been stable for the
// debounce period.
func (w *Watcher) takeReady() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	return ready
}

func (w *Watcher) runCallback(path string) {
	if w.callback == nil {
		return
	}

	relPath, err := filepath.Rel(w.path, path)
	if err != nil {
		relPath = path
	}

	color.Yellow("\nFile changed: %s", relPath)
	fmt.Println(strings.Repeat("-", 40))

	w.callback(path)

	fmt.Println()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the list of watched directories.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
