// pattern: Imperative Shell

package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gitloom/internal/git"
	"gitloom/internal/logging"
)

// validNameRe matches valid worktree names: alphanumeric start, then
// alphanumeric, dots, underscores, slashes, hyphens.
var validNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]*$`)

// ValidateName checks if a worktree/branch name is usable.
// Names double as branch names and directory names, so the same rules
// guard both.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("worktree name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("worktree name too long (max 100 characters)")
	}
	if !validNameRe.MatchString(name) {
		return fmt.Errorf("invalid worktree name %q: must start with alphanumeric, may contain a-z A-Z 0-9 . _ / -", name)
	}
	// Disallow ".." path traversal
	if strings.Contains(name, "..") {
		return fmt.Errorf("worktree name cannot contain '..'")
	}
	return nil
}

// Dir returns the path where a worktree for name would be created.
// Worktrees are stored in <repo>/.worktrees/<name>/; slashes in the
// name become nested directories.
func Dir(repoRoot, name string) string {
	return filepath.Join(repoRoot, ".worktrees", name)
}

// CreateSpec describes one worktree to create.
type CreateSpec struct {
	// Branch is the branch to check out in the new worktree.
	Branch string
	// CreateBranch makes a new branch instead of checking out an
	// existing one.
	CreateBranch bool
	// BaseBranch is the starting point for a created branch. Empty
	// means the repository's current HEAD.
	BaseBranch string
	// Path overrides the default <repo>/.worktrees/<branch> location.
	Path string
	// Force resets an existing branch onto the base instead of
	// failing with BranchExistsError.
	Force bool
}

// Registry lists, creates, and removes the worktrees of one
// repository. It holds no state of its own: every query goes back to
// git, because worktrees are shared mutable state that other processes
// change underneath us.
type Registry struct {
	run        git.Runner
	mainBranch string
	log        *logging.ScopedLogger
}

// NewRegistry returns a Registry that issues git commands through run.
// mainBranch is the configured trunk branch name; empty string falls
// back to positional detection (git lists the main worktree first).
func NewRegistry(run git.Runner, mainBranch string, log *logging.ScopedLogger) *Registry {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Registry{run: run, mainBranch: mainBranch, log: log}
}

// List returns the repository's worktrees, freshly queried. dir may be
// any directory inside any worktree of the repository.
func (r *Registry) List(ctx context.Context, dir string) ([]git.Worktree, error) {
	return git.ListWorktrees(ctx, r.run, dir)
}

// Create makes a new worktree in the repository containing repoDir and
// returns its path.
func (r *Registry) Create(ctx context.Context, repoDir string, spec CreateSpec) (string, error) {
	if err := ValidateName(spec.Branch); err != nil {
		return "", err
	}

	path := spec.Path
	if path == "" {
		root, err := git.Toplevel(ctx, r.run, repoDir)
		if err != nil {
			return "", err
		}
		path = Dir(root, spec.Branch)
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("worktree path %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating worktree parent directory: %w", err)
	}

	args := []string{"worktree", "add", path}
	if spec.CreateBranch {
		exists, err := git.BranchExists(ctx, r.run, repoDir, spec.Branch)
		if err != nil {
			return "", err
		}
		if exists && !spec.Force {
			return "", &BranchExistsError{Branch: spec.Branch}
		}
		flag := "-b"
		if spec.Force {
			flag = "-B"
		}
		args = append(args, flag, spec.Branch)
		if spec.BaseBranch != "" {
			args = append(args, spec.BaseBranch)
		}
	} else {
		args = append(args, spec.Branch)
	}

	if _, err := r.run(ctx, repoDir, args...); err != nil {
		return "", err
	}

	r.log.Info("worktree created", "path", path, "branch", spec.Branch, "base", spec.BaseBranch)
	return path, nil
}

// Remove force-removes the worktree at path. It succeeds even when the
// directory was already partially or fully deleted on disk: whatever
// is left is cleared and git's bookkeeping is pruned.
func (r *Registry) Remove(ctx context.Context, repoDir, path string) error {
	_, err := r.run(ctx, repoDir, "worktree", "remove", "--force", path)
	if err == nil {
		r.log.Info("worktree removed", "path", path)
		return nil
	}

	// git refuses when the directory is gone or mangled. Finish the
	// job by hand and prune the stale administrative entry.
	if _, statErr := os.Stat(path); statErr == nil {
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return fmt.Errorf("removing worktree directory %s: %w", path, rmErr)
		}
	}
	if _, pruneErr := r.run(ctx, repoDir, "worktree", "prune"); pruneErr != nil {
		return pruneErr
	}
	r.log.Info("worktree removed", "path", path, "pruned", true)
	return nil
}

// DeleteBranch removes a local branch. force uses -D, which discards
// unmerged work.
func (r *Registry) DeleteBranch(ctx context.Context, repoDir, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.run(ctx, repoDir, "branch", flag, branch)
	return err
}

// IsMain reports whether wt is the repository's main worktree given
// the full population. "Main" is decided by configuration first: if a
// trunk branch name is configured, the worktree holding that branch is
// main. Only without a configured match does position decide (git
// lists the main worktree first). Branch-name equality alone is never
// trusted, since users rename their trunk.
func (r *Registry) IsMain(wt git.Worktree, all []git.Worktree) bool {
	if r.mainBranch != "" {
		for _, w := range all {
			if w.Branch == r.mainBranch {
				return w.Path == wt.Path
			}
		}
	}
	return len(all) > 0 && all[0].Path == wt.Path
}

// MainWorktree returns the main worktree of the population, or false
// when the population is empty.
func (r *Registry) MainWorktree(all []git.Worktree) (git.Worktree, bool) {
	for _, wt := range all {
		if r.IsMain(wt, all) {
			return wt, true
		}
	}
	return git.Worktree{}, false
}
