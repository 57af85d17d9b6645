// pattern: Functional Core

package logging

import (
	"strings"
	"testing"
	"time"
)

func TestLogEntry_String(t *testing.T) {
	tests := []struct {
		name     string
		entry    LogEntry
		contains []string
	}{
		{
			name: "basic entry",
			entry: LogEntry{
				Timestamp: time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC),
				Level:     "INFO",
				Scope:     "dashboard",
				Message:   "watching loom records",
			},
			contains: []string{"10:30:00", "INFO", "dashboard", "watching loom records"},
		},
		{
			name: "entry with fields",
			entry: LogEntry{
				Timestamp: time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC),
				Level:     "WARN",
				Scope:     "merge",
				Message:   "conflicts detected",
				Fields:    map[string]any{"files": 3},
			},
			contains: []string{"WARN", "merge", "conflicts detected", "files=3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.entry.String()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("String() = %q, should contain %q", got, want)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"DEBUG", "DEBUG"},
		{"info", "INFO"},
		{"INFO", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"ERROR", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeLogLine(t *testing.T) {
	line := `{"level":"warn","ts":1737974400.5,"logger":"merge","msg":"conflicts detected","files":2,"caller":"merge/orchestrator.go:101"}`

	entry, err := decodeLogLine([]byte(line))
	if err != nil {
		t.Fatalf("decodeLogLine() error = %v", err)
	}
	if entry.Level != "WARN" {
		t.Errorf("Level = %q, want WARN", entry.Level)
	}
	if entry.Scope != "merge" {
		t.Errorf("Scope = %q, want merge", entry.Scope)
	}
	if entry.Message != "conflicts detected" {
		t.Errorf("Message = %q", entry.Message)
	}
	if entry.Timestamp.Unix() != 1737974400 {
		t.Errorf("Timestamp = %v, want epoch 1737974400", entry.Timestamp)
	}
	if got := entry.Fields["files"]; got != float64(2) {
		t.Errorf("Fields[files] = %v, want 2", got)
	}
	if _, ok := entry.Fields["caller"]; ok {
		t.Error("caller should not surface as a field")
	}
}

func TestDecodeLogLineDefaults(t *testing.T) {
	entry, err := decodeLogLine([]byte(`{"msg":"bare"}`))
	if err != nil {
		t.Fatalf("decodeLogLine() error = %v", err)
	}
	if entry.Level != "INFO" {
		t.Errorf("Level = %q, want INFO default", entry.Level)
	}
	if entry.Scope != "app" {
		t.Errorf("Scope = %q, want app default", entry.Scope)
	}
	if entry.Timestamp.IsZero() {
		t.Error("missing ts should default to now, not zero")
	}
}

func TestDecodeLogLineTornInput(t *testing.T) {
	if _, err := decodeLogLine([]byte(`{"msg":"cut off`)); err == nil {
		t.Error("torn JSON should not decode")
	}
}
