package cli

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"gitloom/internal/loom"
)

func seedRecord(t *testing.T, root string, md *loom.Metadata) {
	t.Helper()
	if err := loom.NewStore(root, nil).Write(md); err != nil {
		t.Fatalf("seeding record: %v", err)
	}
}

func TestLoomCreate_CreatesWorktreeAndRecord(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	f.errs["rev-parse --verify --quiet refs/heads/loom/fix-login"] = exitOne()

	rt, stdout, _, exitCode := newTestRuntime(f, root)
	if err := runLoomCreate(rt, "fix-login", "", "", false, false); err != nil {
		t.Fatalf("runLoomCreate: %v", err)
	}
	if *exitCode != -1 {
		t.Fatalf("exit code = %d, want no exit", *exitCode)
	}

	wantPath := filepath.Join(root, ".worktrees", "loom/fix-login")
	if !f.called("worktree add " + wantPath + " -b loom/fix-login") {
		t.Errorf("worktree add not invoked, calls: %v", f.calls)
	}

	md, err := loom.NewStore(root, nil).ReadBranch("loom/fix-login")
	if err != nil {
		t.Fatalf("record not written: %v", err)
	}
	if md.State != loom.StatePending {
		t.Errorf("state = %q, want pending", md.State)
	}
	if md.WorktreePath != wantPath {
		t.Errorf("worktree path = %q, want %q", md.WorktreePath, wantPath)
	}
	if md.SessionID == "" {
		t.Error("record has no session id")
	}
	if !strings.Contains(stdout.String(), "created") {
		t.Errorf("stdout missing confirmation: %q", stdout.String())
	}
}

func TestLoomCreate_BaseBranchPassedThrough(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	f.errs["rev-parse --verify --quiet refs/heads/loom/hotfix"] = exitOne()

	rt, _, _, _ := newTestRuntime(f, root)
	if err := runLoomCreate(rt, "hotfix", "", "release-2.1", false, false); err != nil {
		t.Fatalf("runLoomCreate: %v", err)
	}

	wantPath := filepath.Join(root, ".worktrees", "loom/hotfix")
	if !f.called("worktree add " + wantPath + " -b loom/hotfix release-2.1") {
		t.Errorf("base branch not passed to worktree add, calls: %v", f.calls)
	}
}

func TestLoomCreate_InvalidName(t *testing.T) {
	f := newFakeGit()
	rt, _, stderr, exitCode := newTestRuntime(f, t.TempDir())

	_ = runLoomCreate(rt, "../evil", "", "", false, false)

	if *exitCode != 1 {
		t.Errorf("exit code = %d, want 1", *exitCode)
	}
	if len(f.calls) != 0 {
		t.Errorf("git invoked despite invalid name: %v", f.calls)
	}
	if !strings.Contains(stderr.String(), "invalid worktree name") {
		t.Errorf("stderr missing validation error: %q", stderr.String())
	}
}

func TestLoomCreate_BranchExistsExitsTwo(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	// rev-parse --verify succeeding means the branch exists.

	rt, _, stderr, exitCode := newTestRuntime(f, root)
	_ = runLoomCreate(rt, "dupe", "", "", false, false)

	if *exitCode != 2 {
		t.Errorf("exit code = %d, want 2", *exitCode)
	}
	if !strings.Contains(stderr.String(), "--force") {
		t.Errorf("stderr missing the --force suggestion: %q", stderr.String())
	}
}

func TestLoomCreate_RecordFailureRollsBack(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)

	// An existing record in a state that cannot legally return to
	// pending makes the metadata write fail after worktree creation.
	wantPath := filepath.Join(root, ".worktrees", "loom/retry")
	seedRecord(t, root, &loom.Metadata{
		State:        loom.StateActive,
		BranchName:   "loom/retry",
		WorktreePath: wantPath,
	})

	rt, _, _, exitCode := newTestRuntime(f, root)
	_ = runLoomCreate(rt, "retry", "", "", true, false)

	if *exitCode != 1 {
		t.Errorf("exit code = %d, want 1", *exitCode)
	}
	if !f.called("worktree remove --force " + wantPath) {
		t.Errorf("worktree rollback not invoked, calls: %v", f.calls)
	}
	if !f.called("branch -D loom/retry") {
		t.Errorf("branch rollback not invoked, calls: %v", f.calls)
	}

	// The stored record survives untouched.
	md, err := loom.NewStore(root, nil).ReadBranch("loom/retry")
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	if md.State != loom.StateActive {
		t.Errorf("record state = %q, want active", md.State)
	}
}

func TestLoomList(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	seedRecord(t, root, &loom.Metadata{
		State:        loom.StateActive,
		BranchName:   "loom/alpha",
		WorktreePath: filepath.Join(root, ".worktrees", "loom/alpha"),
	})
	seedRecord(t, root, &loom.Metadata{
		State:        loom.StatePending,
		BranchName:   "loom/beta",
		WorktreePath: filepath.Join(root, ".worktrees", "loom/beta"),
		IssueKey:     "42",
		IssueType:    "issue",
		Title:        "Fix login",
	})

	rt, stdout, _, _ := newTestRuntime(f, root)
	if err := runLoomList(rt, false); err != nil {
		t.Fatalf("runLoomList: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"loom/alpha", "loom/beta", "active", "pending", "#42 Fix login"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestLoomList_JSON(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	seedRecord(t, root, &loom.Metadata{
		State:        loom.StatePending,
		BranchName:   "loom/alpha",
		WorktreePath: filepath.Join(root, ".worktrees", "loom/alpha"),
	})

	rt, stdout, _, _ := newTestRuntime(f, root)
	if err := runLoomList(rt, true); err != nil {
		t.Fatalf("runLoomList: %v", err)
	}

	line := strings.TrimSpace(stdout.String())
	var md loom.Metadata
	if err := json.Unmarshal([]byte(line), &md); err != nil {
		t.Fatalf("output is not one JSON record: %v\n%s", err, line)
	}
	if md.BranchName != "loom/alpha" {
		t.Errorf("branchName = %q, want loom/alpha", md.BranchName)
	}
}

func TestLoomList_Empty(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)

	rt, stdout, _, _ := newTestRuntime(f, root)
	if err := runLoomList(rt, false); err != nil {
		t.Fatalf("runLoomList: %v", err)
	}
	if !strings.Contains(stdout.String(), "no looms") {
		t.Errorf("empty list output = %q", stdout.String())
	}
}

func TestLoomRemove_ByName(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	wtPath := filepath.Join(root, ".worktrees", "loom/fix")
	seedRecord(t, root, &loom.Metadata{
		State:        loom.StatePending,
		BranchName:   "loom/fix",
		WorktreePath: wtPath,
	})

	rt, stdout, _, exitCode := newTestRuntime(f, root)
	if err := runLoomRemove(rt, "fix", false); err != nil {
		t.Fatalf("runLoomRemove: %v", err)
	}
	if *exitCode != -1 {
		t.Fatalf("exit code = %d, want no exit", *exitCode)
	}

	if !f.called("worktree remove --force " + wtPath) {
		t.Errorf("worktree remove not invoked, calls: %v", f.calls)
	}
	if !f.called("branch -D loom/fix") {
		t.Errorf("branch delete not invoked, calls: %v", f.calls)
	}
	if _, err := loom.NewStore(root, nil).ReadBranch("loom/fix"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("record still present after remove: %v", err)
	}
	if !strings.Contains(stdout.String(), "removed loom/fix") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestLoomRemove_KeepBranch(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	wtPath := filepath.Join(root, ".worktrees", "loom/keep")
	seedRecord(t, root, &loom.Metadata{
		State:        loom.StatePending,
		BranchName:   "loom/keep",
		WorktreePath: wtPath,
	})

	rt, _, _, _ := newTestRuntime(f, root)
	if err := runLoomRemove(rt, "keep", true); err != nil {
		t.Fatalf("runLoomRemove: %v", err)
	}

	if f.called("branch -D loom/keep") {
		t.Error("branch deleted despite --keep-branch")
	}
}

func TestLoomRemove_FromMainWithoutName(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)

	rt, _, stderr, exitCode := newTestRuntime(f, root)
	_ = runLoomRemove(rt, "", false)

	if *exitCode != 1 {
		t.Errorf("exit code = %d, want 1", *exitCode)
	}
	if !strings.Contains(stderr.String(), "main worktree has no loom") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLoomRemove_UnknownName(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)

	rt, _, stderr, exitCode := newTestRuntime(f, root)
	_ = runLoomRemove(rt, "ghost", false)

	if *exitCode != 1 {
		t.Errorf("exit code = %d, want 1", *exitCode)
	}
	if !strings.Contains(stderr.String(), "no loom record for branch loom/ghost") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLoomShow_Human(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	seedRecord(t, root, &loom.Metadata{
		State:        loom.StateActive,
		BranchName:   "loom/fix",
		WorktreePath: filepath.Join(root, ".worktrees", "loom/fix"),
		IssueType:    "issue",
		IssueKey:     "7",
		Title:        "Fix the thing",
	})

	rt, stdout, _, _ := newTestRuntime(f, root)
	if err := runLoomShow(rt, "fix", false); err != nil {
		t.Fatalf("runLoomShow: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"branch:   loom/fix", "state:    active", "issue:    issue #7 Fix the thing"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestLoomShow_JSON(t *testing.T) {
	root := t.TempDir()
	f := newFakeGit()
	scriptRepo(f, root)
	seedRecord(t, root, &loom.Metadata{
		State:        loom.StatePending,
		BranchName:   "loom/fix",
		WorktreePath: filepath.Join(root, ".worktrees", "loom/fix"),
	})

	rt, stdout, _, _ := newTestRuntime(f, root)
	if err := runLoomShow(rt, "fix", true); err != nil {
		t.Fatalf("runLoomShow: %v", err)
	}

	var md loom.Metadata
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout.String())), &md); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if md.State != loom.StatePending {
		t.Errorf("state = %q, want pending", md.State)
	}
}

func TestBranchForName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fix-login", "loom/fix-login"},
		{"loom/fix-login", "loom/fix-login"},
		{"nested/name", "loom/nested/name"},
	}
	for _, tt := range tests {
		if got := branchForName(tt.in); got != tt.want {
			t.Errorf("branchForName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
