package swarm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gitloom/internal/worktree"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCopyAgentFiles(t *testing.T) {
	base := t.TempDir()
	parent := filepath.Join(base, "parent")
	childA := filepath.Join(base, "child-a")
	childB := filepath.Join(base, "child-b")
	for _, d := range []string{parent, childA, childB} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	writeFile(t, filepath.Join(parent, "CLAUDE.md"), "guidance\n")
	writeFile(t, filepath.Join(parent, ".claude", "agents", "reviewer.md"), "review\n")

	c := NewCoordinator(worktree.NewRegistry(nil, "main", nil), newMemStore(), nil, nil, nil)
	results := []ChildResult{
		{IssueID: "1", WorktreePath: childA, Success: true},
		{IssueID: "2", WorktreePath: "", Success: false}, // failed child: skipped
		{IssueID: "3", WorktreePath: childB, Success: true},
	}

	copied := c.CopyAgentFiles(context.Background(), parent, results, nil)
	if copied != 2 {
		t.Errorf("CopyAgentFiles() = %d, want 2", copied)
	}

	for _, child := range []string{childA, childB} {
		if _, err := os.Stat(filepath.Join(child, "CLAUDE.md")); err != nil {
			t.Errorf("CLAUDE.md missing in %s", child)
		}
		nested := filepath.Join(child, ".claude", "agents", "reviewer.md")
		data, err := os.ReadFile(nested)
		if err != nil {
			t.Errorf("nested agent file missing in %s: %v", child, err)
			continue
		}
		if string(data) != "review\n" {
			t.Errorf("nested agent file content = %q", data)
		}
	}
}

func TestCopyAgentFilesOneFailureDoesNotBlockOthers(t *testing.T) {
	base := t.TempDir()
	parent := filepath.Join(base, "parent")
	broken := filepath.Join(base, "broken")
	healthy := filepath.Join(base, "healthy")
	if err := os.MkdirAll(parent, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(healthy, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(parent, ".claude", "settings.json"), "{}\n")
	// A plain file where a worktree directory should be makes the copy
	// into it fail.
	writeFile(t, broken, "not a directory")

	c := NewCoordinator(worktree.NewRegistry(nil, "main", nil), newMemStore(), nil, nil, nil)
	results := []ChildResult{
		{IssueID: "1", WorktreePath: broken, Success: true},
		{IssueID: "2", WorktreePath: healthy, Success: true},
	}

	copied := c.CopyAgentFiles(context.Background(), parent, results, nil)
	if copied != 1 {
		t.Errorf("CopyAgentFiles() = %d, want 1 (the healthy child)", copied)
	}
	if _, err := os.Stat(filepath.Join(healthy, ".claude", "settings.json")); err != nil {
		t.Error("healthy child did not receive files after sibling copy failure")
	}
}

func TestCopyAgentFilesMissingSourcesSkipped(t *testing.T) {
	base := t.TempDir()
	parent := filepath.Join(base, "parent")
	child := filepath.Join(base, "child")
	for _, d := range []string{parent, child} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	c := NewCoordinator(worktree.NewRegistry(nil, "main", nil), newMemStore(), nil, nil, nil)
	results := []ChildResult{{IssueID: "1", WorktreePath: child, Success: true}}

	if copied := c.CopyAgentFiles(context.Background(), parent, results, nil); copied != 1 {
		t.Errorf("CopyAgentFiles() = %d, want 1 even with no sources present", copied)
	}
}
