package worktree

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gitloom/internal/git"
)

// populationRunner answers the resolution queries for a fixed worktree
// population. insideDirs maps directories to the worktree root that
// contains them; anything absent is outside every repository.
func populationRunner(porcelain string, insideDirs map[string]string) git.Runner {
	return func(ctx context.Context, dir string, args ...string) (string, error) {
		key := strings.Join(args, " ")
		switch key {
		case "rev-parse --is-inside-work-tree":
			if _, ok := insideDirs[dir]; ok {
				return "true\n", nil
			}
			return "", &git.CommandError{Args: args, Detail: "fatal: not a git repository", Code: 128, Err: errors.New("exit status 128")}
		case "rev-parse --show-toplevel":
			if top, ok := insideDirs[dir]; ok {
				return top + "\n", nil
			}
			return "", &git.CommandError{Args: args, Detail: "fatal: not a git repository", Code: 128, Err: errors.New("exit status 128")}
		case "worktree list --porcelain":
			return porcelain, nil
		}
		return "", errors.New("unexpected invocation: " + key)
	}
}

const twoTreePorcelain = "worktree /repos/app\n" +
	"HEAD 1111111111111111111111111111111111111111\n" +
	"branch refs/heads/main\n" +
	"\n" +
	"worktree /repos/app/.worktrees/loom-a\n" +
	"HEAD 2222222222222222222222222222222222222222\n" +
	"branch refs/heads/loom/a\n"

func TestResolveContextFromSubdirectory(t *testing.T) {
	run := populationRunner(twoTreePorcelain, map[string]string{
		"/repos/app/.worktrees/loom-a/src/deep": "/repos/app/.worktrees/loom-a",
	})
	reg := NewRegistry(run, "main", nil)

	wc, err := reg.ResolveContext(context.Background(), "/repos/app/.worktrees/loom-a/src/deep")
	if err != nil {
		t.Fatalf("ResolveContext() error = %v", err)
	}
	if wc.Root != "/repos/app/.worktrees/loom-a" {
		t.Errorf("Root = %q, want worktree root, not the subdirectory", wc.Root)
	}
	if wc.Branch != "loom/a" {
		t.Errorf("Branch = %q, want %q", wc.Branch, "loom/a")
	}
	if wc.Main {
		t.Error("Main = true for a child worktree")
	}
	if len(wc.Population) != 2 {
		t.Errorf("Population size = %d, want 2", len(wc.Population))
	}
}

func TestResolveContextNotARepo(t *testing.T) {
	run := populationRunner(twoTreePorcelain, map[string]string{})
	reg := NewRegistry(run, "main", nil)

	_, err := reg.ResolveContext(context.Background(), "/tmp/scratch")
	var repoErr *NotAGitRepoError
	if !errors.As(err, &repoErr) {
		t.Fatalf("ResolveContext() error = %v, want NotAGitRepoError", err)
	}
	if repoErr.Suggestion() == "" {
		t.Error("NotAGitRepoError.Suggestion() is empty")
	}
}

func TestResolveContextUnmanagedRoot(t *testing.T) {
	// A repository that resolves fine but is not part of the listed
	// population (a clone elsewhere on disk).
	run := populationRunner(twoTreePorcelain, map[string]string{
		"/repos/other": "/repos/other",
	})
	reg := NewRegistry(run, "main", nil)

	_, err := reg.ResolveContext(context.Background(), "/repos/other")
	var unmanaged *UnmanagedDirectoryError
	if !errors.As(err, &unmanaged) {
		t.Fatalf("ResolveContext() error = %v, want UnmanagedDirectoryError", err)
	}
	if unmanaged.Root != "/repos/other" {
		t.Errorf("UnmanagedDirectoryError.Root = %q, want %q", unmanaged.Root, "/repos/other")
	}
}

func TestValidationOrderRepoCheckFirst(t *testing.T) {
	// A non-repo path must fail the repository check before any
	// membership check can run.
	calls := []string{}
	run := func(ctx context.Context, dir string, args ...string) (string, error) {
		calls = append(calls, strings.Join(args, " "))
		return "", &git.CommandError{Args: args, Detail: "fatal: not a git repository", Code: 128, Err: errors.New("exit status 128")}
	}
	reg := NewRegistry(run, "main", nil)

	_, err := reg.ResolveContext(context.Background(), "/not/a/repo")
	var repoErr *NotAGitRepoError
	if !errors.As(err, &repoErr) {
		t.Fatalf("error = %v, want NotAGitRepoError", err)
	}
	for _, c := range calls {
		if strings.HasPrefix(c, "worktree list") {
			t.Error("membership check ran before the repository check failed")
		}
	}
}

func TestValidateContextRejectsMain(t *testing.T) {
	run := populationRunner(twoTreePorcelain, map[string]string{
		"/repos/app": "/repos/app",
	})
	reg := NewRegistry(run, "main", nil)

	_, err := reg.ValidateContext(context.Background(), "/repos/app", true)
	var mainErr *MainWorktreeForbiddenError
	if !errors.As(err, &mainErr) {
		t.Fatalf("ValidateContext() error = %v, want MainWorktreeForbiddenError", err)
	}
	if mainErr.Suggestion() == "" {
		t.Error("MainWorktreeForbiddenError.Suggestion() is empty")
	}

	// The same location passes when main is allowed.
	if _, err := reg.ValidateContext(context.Background(), "/repos/app", false); err != nil {
		t.Errorf("ValidateContext(mainForbidden=false) error = %v", err)
	}
}
