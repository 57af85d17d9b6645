package worktree

import "fmt"

// Suggester is implemented by validation errors that carry a
// user-facing remediation hint alongside the message. The CLI prints
// the suggestion on its own line so misuse errors are self-correcting.
type Suggester interface {
	Suggestion() string
}

// NotAGitRepoError reports that the starting directory is not inside
// any git repository.
type NotAGitRepoError struct {
	Dir string
}

func (e *NotAGitRepoError) Error() string {
	return fmt.Sprintf("%s is not inside a git repository", e.Dir)
}

func (e *NotAGitRepoError) Suggestion() string {
	return "run this command from inside a repository, or initialize one with 'git init'"
}

// RootResolutionError reports that the worktree root could not be
// resolved from a directory that is inside a repository.
type RootResolutionError struct {
	Dir string
	Err error
}

func (e *RootResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve the worktree root from %s: %v", e.Dir, e.Err)
}

func (e *RootResolutionError) Suggestion() string {
	return "check that the repository's .git directory is intact and readable"
}

func (e *RootResolutionError) Unwrap() error { return e.Err }

// UnmanagedDirectoryError reports that a resolved worktree root is not
// a member of the repository's worktree population.
type UnmanagedDirectoryError struct {
	Root string
}

func (e *UnmanagedDirectoryError) Error() string {
	return fmt.Sprintf("%s is not a registered worktree of this repository", e.Root)
}

func (e *UnmanagedDirectoryError) Suggestion() string {
	return "run from a worktree known to the repository ('gitloom loom list' shows them), or create one with 'gitloom loom create'"
}

// MainWorktreeForbiddenError reports that a main-exclusive rule was
// violated: the operation targets the integration worktree itself.
type MainWorktreeForbiddenError struct {
	Root   string
	Branch string
}

func (e *MainWorktreeForbiddenError) Error() string {
	return fmt.Sprintf("refusing to run against the main worktree at %s", e.Root)
}

func (e *MainWorktreeForbiddenError) Suggestion() string {
	return "switch to a loom worktree first; the main worktree is the target of integration, never the source"
}

// BranchExistsError reports a creation request for a branch that is
// already present in the repository.
type BranchExistsError struct {
	Branch string
}

func (e *BranchExistsError) Error() string {
	return fmt.Sprintf("branch %q already exists", e.Branch)
}

func (e *BranchExistsError) Suggestion() string {
	return "choose a different name, or pass --force to reset the branch onto the base"
}
