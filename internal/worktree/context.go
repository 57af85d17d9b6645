// pattern: Imperative Shell

package worktree

import (
	"context"
	"path/filepath"

	"gitloom/internal/git"
)

// Context is the resolved location of an operation: which worktree it
// runs in, what that worktree has checked out, and whether it is the
// main worktree. Population is the listing snapshot the resolution was
// checked against, so callers can reuse it without re-querying.
type Context struct {
	Root       string
	Branch     string
	Main       bool
	Population []git.Worktree
}

// ResolveContext walks from cwd (which may be a nested subdirectory)
// up to the enclosing worktree root and cross-checks that root against
// the repository's worktree population. Checks run in a fixed order so
// the user always sees the most fundamental problem first:
//
//  1. cwd is inside some git tree, else NotAGitRepoError
//  2. the worktree root resolves, else RootResolutionError
//  3. the root is a registered worktree, else UnmanagedDirectoryError
func (r *Registry) ResolveContext(ctx context.Context, cwd string) (*Context, error) {
	if !git.InsideWorkTree(ctx, r.run, cwd) {
		return nil, &NotAGitRepoError{Dir: cwd}
	}

	root, err := git.Toplevel(ctx, r.run, cwd)
	if err != nil {
		return nil, &RootResolutionError{Dir: cwd, Err: err}
	}

	all, err := r.List(ctx, root)
	if err != nil {
		return nil, &RootResolutionError{Dir: cwd, Err: err}
	}

	for _, wt := range all {
		if samePath(wt.Path, root) {
			return &Context{
				Root:       wt.Path,
				Branch:     wt.Branch,
				Main:       r.IsMain(wt, all),
				Population: all,
			}, nil
		}
	}
	return nil, &UnmanagedDirectoryError{Root: root}
}

// ValidateContext resolves cwd and additionally rejects the main
// worktree when mainForbidden is set. Operations that rewrite a branch
// onto the mainline must never run from the mainline itself.
func (r *Registry) ValidateContext(ctx context.Context, cwd string, mainForbidden bool) (*Context, error) {
	wc, err := r.ResolveContext(ctx, cwd)
	if err != nil {
		return nil, err
	}
	if mainForbidden && wc.Main {
		return nil, &MainWorktreeForbiddenError{Root: wc.Root, Branch: wc.Branch}
	}
	return wc, nil
}

// samePath compares two paths after cleaning and, where possible,
// symlink resolution. Worktree paths printed by git may differ
// lexically from user-supplied paths that name the same directory.
func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	if errA != nil || errB != nil {
		return false
	}
	return ra == rb
}
