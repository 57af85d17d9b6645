// pattern: Imperative Shell

package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// tailPollInterval is the fallback poll for appends whose filesystem
// events were missed or coalesced.
const tailPollInterval = 2 * time.Second

// Tail follows the shared log file and feeds each JSON line into a
// ChannelSink. Every CLI invocation runs in its own process and
// appends to the same file; tailing it is how the dashboard sees
// their entries. Rotation is survived by reopening after the writer
// renames the file away.
type Tail struct {
	filePath string
	sink     *ChannelSink
	watcher  *fsnotify.Watcher

	mu     sync.Mutex
	file   *os.File
	offset int64
	closed bool
}

// NewTail creates a tail over filePath delivering parsed entries to
// sink.
func NewTail(filePath string, sink *ChannelSink) (*Tail, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &Tail{
		filePath: filePath,
		sink:     sink,
		watcher:  watcher,
	}, nil
}

// Start follows the file until the context is cancelled. Content
// already present when Start is called is skipped; only lines
// appended afterwards are delivered.
func (t *Tail) Start(ctx context.Context) error {
	// Watch the parent directory: the file itself may not exist yet,
	// and rotation recreates it under the same name.
	dir := filepath.Dir(t.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	if err := t.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching log directory: %w", err)
	}

	t.mu.Lock()
	_ = t.openFile(true)
	t.mu.Unlock()

	ticker := time.NewTicker(tailPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = t.Close()
			return ctx.Err()

		case event, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(t.filePath) {
				continue
			}
			if event.Has(fsnotify.Create) {
				t.mu.Lock()
				_ = t.openFile(false)
				t.readNewLines()
				t.mu.Unlock()
			}
			if event.Has(fsnotify.Write) {
				t.mu.Lock()
				t.readNewLines()
				t.mu.Unlock()
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// Rotation renames the file away; the create event
				// for its replacement reopens it from the start.
				t.mu.Lock()
				t.closeFile()
				t.mu.Unlock()
			}

		case <-ticker.C:
			t.mu.Lock()
			if t.file == nil {
				_ = t.openFile(false)
			}
			t.readNewLines()
			t.mu.Unlock()

		case _, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			// Transient watcher errors are survivable; the poll
			// ticker keeps the tail moving.
		}
	}
}

// openFile opens the log file. seekToEnd skips content that predates
// the tail; a freshly rotated file is read from the beginning.
func (t *Tail) openFile(seekToEnd bool) error {
	if t.file != nil {
		return nil
	}

	file, err := os.Open(t.filePath)
	if err != nil {
		return err
	}

	var offset int64
	if seekToEnd {
		offset, err = file.Seek(0, io.SeekEnd)
		if err != nil {
			_ = file.Close()
			return err
		}
	}

	t.file = file
	t.offset = offset
	return nil
}

func (t *Tail) closeFile() {
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
		t.offset = 0
	}
}

// readNewLines reads lines appended since the last read and hands
// them to the sink, which parses and routes them. Malformed lines are
// dropped by the sink.
func (t *Tail) readNewLines() {
	if t.file == nil {
		return
	}

	if _, err := t.file.Seek(t.offset, io.SeekStart); err != nil {
		return
	}

	scanner := bufio.NewScanner(t.file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		_, _ = t.sink.Write(line)
	}

	if pos, err := t.file.Seek(0, io.SeekCurrent); err == nil {
		t.offset = pos
	}
}

// Close stops the tail and releases the watcher. Safe to call more
// than once.
func (t *Tail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	t.closeFile()
	return t.watcher.Close()
}
