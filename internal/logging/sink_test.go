// pattern: Imperative Shell

package logging

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func logLine(t *testing.T, scope, msg string, kv map[string]any) []byte {
	t.Helper()
	raw := map[string]any{
		"level":  "info",
		"ts":     float64(time.Now().Unix()),
		"logger": scope,
		"msg":    msg,
	}
	for k, v := range kv {
		raw[k] = v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	return append(data, '\n')
}

func TestChannelSink_Write(t *testing.T) {
	sink := NewChannelSink(10)
	defer sink.Close()

	line := logLine(t, "swarm", "child worktree created", map[string]any{"branch": "loom/T-1"})
	n, err := sink.Write(line)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(line) {
		t.Errorf("Write() = %d, want %d", n, len(line))
	}

	select {
	case got := <-sink.Entries():
		if got.Message != "child worktree created" {
			t.Errorf("Message = %q", got.Message)
		}
		if got.Scope != "swarm" {
			t.Errorf("Scope = %q, want swarm", got.Scope)
		}
		if got.Level != "INFO" {
			t.Errorf("Level = %q, want INFO", got.Level)
		}
		if got.Fields["branch"] != "loom/T-1" {
			t.Errorf("Fields[branch] = %v, want loom/T-1", got.Fields["branch"])
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for log entry")
	}
}

func TestChannelSink_FullBufferKeepsNewest(t *testing.T) {
	sink := NewChannelSink(2)
	defer sink.Close()

	for i := 1; i <= 5; i++ {
		line := logLine(t, "app", fmt.Sprintf("entry %d", i), nil)
		if _, err := sink.Write(line); err != nil {
			t.Fatalf("Write() error on entry %d: %v", i, err)
		}
	}

	var got []string
	for len(sink.Entries()) > 0 {
		got = append(got, (<-sink.Entries()).Message)
	}
	want := []string{"entry 4", "entry 5"}
	if len(got) != len(want) {
		t.Fatalf("drained %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("drained[%d] = %q, want %q (oldest entries evicted first)", i, got[i], want[i])
		}
	}
}

func TestChannelSink_DropsUndecodableInput(t *testing.T) {
	sink := NewChannelSink(10)
	defer sink.Close()

	torn := []byte(`{"msg":"rotated mid-`)
	n, err := sink.Write(torn)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(torn) {
		t.Errorf("Write() = %d, want %d (dropped input still counts as written)", n, len(torn))
	}
	select {
	case e := <-sink.Entries():
		t.Errorf("undecodable input produced an entry: %+v", e)
	default:
	}
}

func TestChannelSink_Sync(t *testing.T) {
	sink := NewChannelSink(10)
	defer sink.Close()

	if err := sink.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestChannelSink_Close(t *testing.T) {
	sink := NewChannelSink(10)
	sink.Close()
	sink.Close()

	if _, err := sink.Write([]byte(`{"msg":"late"}`)); err == nil {
		t.Error("Write() after Close() should return error")
	}
}
