package swarm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTaskFiles(t *testing.T) {
	repo := t.TempDir()
	first := filepath.Join(repo, ".worktrees", "loom", "40")
	second := filepath.Join(repo, ".worktrees", "loom", "41")
	for _, dir := range []string{first, second} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	c := NewCoordinator(nil, nil, nil, nil, nil)
	items := testItems()
	results := []ChildResult{
		{IssueID: "40", WorktreePath: first, Branch: "loom/40", Success: true},
		{IssueID: "41", WorktreePath: second, Branch: "loom/41", Success: true},
		{IssueID: "42", Branch: "loom/42", Success: false, Error: "worktree add failed"},
	}

	written := c.WriteTaskFiles(testParent(repo), items, results)
	if written != 2 {
		t.Fatalf("WriteTaskFiles() = %d, want 2", written)
	}

	data, err := os.ReadFile(filepath.Join(second, TaskFileName))
	if err != nil {
		t.Fatalf("task file for item 41 not written: %v", err)
	}
	task := string(data)
	for _, want := range []string{"41", "Add retry logic", "loom/epic-7", "40"} {
		if !strings.Contains(task, want) {
			t.Errorf("task file missing %q:\n%s", want, task)
		}
	}

	// The failed child got no file anywhere.
	if _, err := os.Stat(filepath.Join(repo, TaskFileName)); !os.IsNotExist(err) {
		t.Error("task file written outside a successful child worktree")
	}
}

func TestWriteTaskFilesUnwritableChildSkipped(t *testing.T) {
	repo := t.TempDir()
	good := filepath.Join(repo, ".worktrees", "loom", "40")
	if err := os.MkdirAll(good, 0755); err != nil {
		t.Fatal(err)
	}

	c := NewCoordinator(nil, nil, nil, nil, nil)
	results := []ChildResult{
		{IssueID: "40", WorktreePath: good, Branch: "loom/40", Success: true},
		// Reported successful but its directory is gone; the write
		// fails and the sibling is unaffected.
		{IssueID: "41", WorktreePath: filepath.Join(repo, "missing"), Branch: "loom/41", Success: true},
	}

	written := c.WriteTaskFiles(testParent(repo), testItems(), results)
	if written != 1 {
		t.Fatalf("WriteTaskFiles() = %d, want 1", written)
	}
	if _, err := os.Stat(filepath.Join(good, TaskFileName)); err != nil {
		t.Errorf("surviving child lost its task file: %v", err)
	}
}
