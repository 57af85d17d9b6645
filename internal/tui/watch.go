// pattern: Imperative Shell

package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// StoreWatcher surfaces loom record changes as dashboard messages.
// It watches the records directory itself so records created after
// the watcher starts are still seen.
type StoreWatcher struct {
	dir     string
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	closed bool
}

// NewStoreWatcher watches the given records directory, creating it
// first when missing so the watch can be established.
func NewStoreWatcher(dir string) (*StoreWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating records dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &StoreWatcher{dir: dir, watcher: watcher}, nil
}

// Wait blocks until a record file changes and returns its path, or
// ok=false when the watcher is closed. Lock-file churn is filtered
// out so acquiring a record lock does not refresh the dashboard.
func (w *StoreWatcher) Wait() (path string, ok bool) {
	for {
		select {
		case event, open := <-w.watcher.Events:
			if !open {
				return "", false
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			return filepath.Clean(event.Name), true
		case _, open := <-w.watcher.Errors:
			if !open {
				return "", false
			}
			// Watch errors are transient; the periodic refresh
			// still covers missed events.
		}
	}
}

func (w *StoreWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}
