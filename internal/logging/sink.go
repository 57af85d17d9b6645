// pattern: Imperative Shell

package logging

import (
	"fmt"
	"sync"
)

// ChannelSink buffers decoded log entries for the dashboard footer.
// Both the in-process zap core and the log file tail write through it.
// Writes never block: a full buffer evicts its oldest entry.
type ChannelSink struct {
	entries chan LogEntry

	mu     sync.Mutex
	closed bool
}

// NewChannelSink creates a sink buffering up to bufferSize entries.
func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{entries: make(chan LogEntry, bufferSize)}
}

// Write accepts one whole JSON log line. Undecodable input is dropped
// and still reported as written, so a torn line from the tail never
// stalls logging.
func (s *ChannelSink) Write(p []byte) (int, error) {
	entry, err := decodeLogLine(p)
	if err != nil {
		return len(p), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("write to closed channel sink")
	}

	select {
	case s.entries <- entry:
	default:
		// Full: evict the oldest entry and try once more.
		select {
		case <-s.entries:
		default:
		}
		select {
		case s.entries <- entry:
		default:
		}
	}
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer. Entries are handed off in
// Write, so there is nothing to flush.
func (s *ChannelSink) Sync() error {
	return nil
}

// Close closes the entries channel. Safe to call more than once.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	return nil
}

// Entries returns the receive side of the buffer.
func (s *ChannelSink) Entries() <-chan LogEntry {
	return s.entries
}
