// pattern: Imperative Shell

package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Toplevel resolves the root of the worktree containing dir.
func Toplevel(ctx context.Context, run Runner, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// InsideWorkTree reports whether dir is inside a git worktree.
func InsideWorkTree(ctx context.Context, run Runner, dir string) bool {
	out, err := run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// CurrentBranch returns the checked-out branch in dir, or "" when HEAD
// is detached.
func CurrentBranch(ctx context.Context, run Runner, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", nil
	}
	return branch, nil
}

// BranchExists reports whether a local branch with the given name exists.
func BranchExists(ctx context.Context, run Runner, dir, branch string) (bool, error) {
	_, err := run(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	if err != nil {
		if exitedWith(err, 1) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsAncestor reports whether commit a is an ancestor of commit b.
// An exit status of 1 is git's "no", not a failure.
func IsAncestor(ctx context.Context, run Runner, dir, a, b string) (bool, error) {
	_, err := run(ctx, dir, "merge-base", "--is-ancestor", a, b)
	if err != nil {
		if exitedWith(err, 1) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ConflictingFiles lists paths with unmerged index entries in dir.
// Empty output means no conflict is in progress.
func ConflictingFiles(ctx context.Context, run Runner, dir string) ([]string, error) {
	out, err := run(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// FilesWithConflictMarkers lists tracked files still containing merge
// conflict markers. This catches half-finished resolutions where the
// index was cleaned up but marker text survives in the working tree.
func FilesWithConflictMarkers(ctx context.Context, run Runner, dir string) ([]string, error) {
	out, err := run(ctx, dir, "grep", "-l", "-E", "^(<<<<<<< |>>>>>>> |=======$)")
	if err != nil {
		// git grep exits 1 when nothing matches.
		if exitedWith(err, 1) {
			return nil, nil
		}
		return nil, err
	}
	return splitLines(out), nil
}

// RebaseInProgress reports whether dir has a paused rebase. Both the
// merge-backed and apply-backed rebase state directories are checked.
func RebaseInProgress(ctx context.Context, run Runner, dir string) (bool, error) {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		exists, err := gitPathExists(ctx, run, dir, name)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// MergeInProgress reports whether dir has an unconcluded merge.
func MergeInProgress(ctx context.Context, run Runner, dir string) (bool, error) {
	return gitPathExists(ctx, run, dir, "MERGE_HEAD")
}

// gitPathExists resolves a path inside the git directory and checks it
// on disk. rev-parse prints the path whether or not it exists, so the
// stat is the actual answer.
func gitPathExists(ctx context.Context, run Runner, dir, name string) (bool, error) {
	out, err := run(ctx, dir, "rev-parse", "--git-path", name)
	if err != nil {
		return false, err
	}
	p := strings.TrimSpace(out)
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Status runs `git status --porcelain` in dir and parses the result.
func Status(ctx context.Context, run Runner, dir string) ([]StatusEntry, error) {
	out, err := run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return ParseStatus(out), nil
}

// ListWorktrees runs `git worktree list --porcelain` in dir and parses
// the result. Never cached: worktrees are shared mutable state and any
// snapshot goes stale the moment another process touches the repo.
func ListWorktrees(ctx context.Context, run Runner, dir string) ([]Worktree, error) {
	out, err := run(ctx, dir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return ParseWorktrees(out), nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
