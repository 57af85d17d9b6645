// pattern: Functional Core

package logging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LogEntry is one decoded log line as the dashboard footer consumes
// it, whether it arrived through the in-process sink or the file tail.
type LogEntry struct {
	Timestamp time.Time
	Level     string // DEBUG, INFO, WARN, ERROR
	Scope     string // subsystem name ("merge", "swarm", "dashboard")
	Message   string
	Fields    map[string]any
}

// String renders the entry the way the footer displays it.
func (e LogEntry) String() string {
	s := fmt.Sprintf("%s %s [%s] %s", e.Timestamp.Format("15:04:05"), e.Level, e.Scope, e.Message)
	if len(e.Fields) == 0 {
		return s
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return s + " " + strings.Join(parts, " ")
}

// ParseLevel normalizes a level name to its display form. Anything
// unrecognized reads as INFO rather than failing the whole entry.
func ParseLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	}
	return "INFO"
}

// decodeLogLine parses one JSON log line into a LogEntry: epoch-float
// ts, lowercase level, the scope under "logger", remaining keys kept
// as fields. Lines read back from the shared log file decode the same
// way as in-process writes because every gitloom process encodes with
// jsonCore.
func decodeLogLine(data []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Scope:     "app",
		Fields:    make(map[string]any),
	}
	if ts, ok := raw["ts"].(float64); ok {
		sec := int64(ts)
		entry.Timestamp = time.Unix(sec, int64((ts-float64(sec))*1e9))
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = ParseLevel(level)
	}
	if scope, ok := raw["logger"].(string); ok {
		entry.Scope = scope
	}
	if msg, ok := raw["msg"].(string); ok {
		entry.Message = msg
	}
	for k, v := range raw {
		switch k {
		case "ts", "level", "logger", "msg", "caller", "stacktrace":
			continue
		}
		entry.Fields[k] = v
	}
	return entry, nil
}
