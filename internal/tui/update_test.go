package tui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitloom/internal/config"
	"gitloom/internal/logging"
	"gitloom/internal/loom"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	root := t.TempDir()
	store := loom.NewStore(root, nil)

	m := NewModel(config.DefaultConfig(), root, store, nil)
	t.Cleanup(m.Close)

	// Set window size so the list renders properly.
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func testRecord(branch string, state loom.State) *loom.Metadata {
	return &loom.Metadata{
		State:        state,
		BranchName:   branch,
		WorktreePath: "/work/app_" + branch,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestUpdate_WindowSize(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)

	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}

	wantHeight := ComputeLayout(120, 40).ContentListHeight()
	if got := m.loomList.Height(); got != wantHeight {
		t.Errorf("list height = %d, want %d", got, wantHeight)
	}
}

func TestUpdate_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		m := newTestModel(t)

		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("key %s should return a command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %s should quit", key)
		}
	}
}

func TestUpdate_RefreshKey(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("'r' should return a refresh command")
	}

	// Against an empty store the refresh reports an empty list.
	got := cmd()
	msg, ok := got.(loomsRefreshedMsg)
	if !ok {
		t.Fatalf("refresh command returned %T, want loomsRefreshedMsg", got)
	}
	if len(msg.looms) != 0 {
		t.Errorf("len(looms) = %d, want 0", len(msg.looms))
	}
}

func TestUpdate_LoomsRefreshed(t *testing.T) {
	m := newTestModel(t)
	m.err = errors.New("stale error")

	looms := []*loom.Metadata{
		testRecord("loom/a", loom.StateActive),
		testRecord("loom/b", loom.StateCompleted),
	}

	updated, _ := m.Update(loomsRefreshedMsg{looms: looms})
	m = updated.(Model)

	if len(m.loomList.Items()) != 2 {
		t.Errorf("list items = %d, want 2", len(m.loomList.Items()))
	}
	if m.err != nil {
		t.Errorf("err = %v, want nil after refresh", m.err)
	}
	if m.lastRefresh.IsZero() {
		t.Error("lastRefresh should be set after refresh")
	}
}

func TestUpdate_LoomError(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(loomErrorMsg{err: errors.New("read failed")})
	m = updated.(Model)

	if m.err == nil {
		t.Error("err should be set after loomErrorMsg")
	}
}

func TestUpdate_StoreChangedTriggersRefresh(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(storeChangedMsg{path: "/work/.gitloom/looms/a.json"})
	if cmd == nil {
		t.Fatal("storeChangedMsg should return a command")
	}
}

func TestUpdate_TickRefreshes(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tickMsg{time: time.Now()})
	if cmd == nil {
		t.Fatal("tickMsg should return a command")
	}
}

func TestUpdate_LogEntriesAppend(t *testing.T) {
	m := newTestModel(t)

	entries := []logging.LogEntry{
		{Message: "first", Scope: "app"},
		{Message: "second", Scope: "merge"},
	}

	updated, cmd := m.Update(logEntriesMsg{entries: entries})
	m = updated.(Model)

	if len(m.logEntries) != 2 {
		t.Errorf("logEntries = %d, want 2", len(m.logEntries))
	}
	// Without a log source there is no channel to re-arm.
	if cmd != nil {
		t.Error("cmd should be nil without a log source")
	}
}

func TestUpdate_LogEntriesRearmsWithSource(t *testing.T) {
	m := newTestModel(t)

	ch := make(chan logging.LogEntry, 1)
	m.SetLogSource(ch)

	updated, cmd := m.Update(logEntriesMsg{entries: []logging.LogEntry{{Message: "one"}}})
	m = updated.(Model)

	if cmd == nil {
		t.Fatal("a wired log source must re-arm the consumer")
	}
	// The re-armed command delivers the next buffered entry.
	ch <- logging.LogEntry{Message: "two"}
	msg, ok := cmd().(logEntriesMsg)
	if !ok {
		t.Fatal("re-armed command should produce logEntriesMsg")
	}
	if len(msg.entries) != 1 || msg.entries[0].Message != "two" {
		t.Errorf("entries = %+v", msg.entries)
	}
}

func TestUpdate_LogEntriesCapped(t *testing.T) {
	m := newTestModel(t)

	var entries []logging.LogEntry
	for i := 0; i < maxLogEntries+50; i++ {
		entries = append(entries, logging.LogEntry{Message: fmt.Sprintf("entry %d", i)})
	}

	updated, _ := m.Update(logEntriesMsg{entries: entries})
	m = updated.(Model)

	if len(m.logEntries) != maxLogEntries {
		t.Errorf("logEntries = %d, want %d", len(m.logEntries), maxLogEntries)
	}
	// The oldest entries are dropped first.
	if got := m.logEntries[0].Message; got != "entry 50" {
		t.Errorf("oldest entry = %q, want %q", got, "entry 50")
	}
}

func TestRefreshLooms_ReadsStore(t *testing.T) {
	root := t.TempDir()
	store := loom.NewStore(root, nil)

	if err := store.Write(testRecord("loom/issue-42", loom.StateActive)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	m := NewModel(config.DefaultConfig(), root, store, nil)
	t.Cleanup(m.Close)

	msg, ok := m.refreshLooms()().(loomsRefreshedMsg)
	if !ok {
		t.Fatal("refreshLooms should return loomsRefreshedMsg")
	}
	if len(msg.looms) != 1 {
		t.Fatalf("len(looms) = %d, want 1", len(msg.looms))
	}
	if msg.looms[0].BranchName != "loom/issue-42" {
		t.Errorf("BranchName = %q, want %q", msg.looms[0].BranchName, "loom/issue-42")
	}
}

func TestInit_ReturnsCommands(t *testing.T) {
	m := newTestModel(t)

	if cmd := m.Init(); cmd == nil {
		t.Error("Init() should return initial commands")
	}
}
