// pattern: Functional Core

package git

import "strings"

// Worktree is one entry of `git worktree list --porcelain` output.
type Worktree struct {
	Path     string
	Commit   string
	Branch   string // short branch name, empty when detached or bare
	Bare     bool
	Detached bool
	Locked   bool
	Prunable bool
}

// ParseWorktrees parses `git worktree list --porcelain` output. Entries
// are blank-line separated blocks; git lists the main worktree first.
func ParseWorktrees(out string) []Worktree {
	var (
		worktrees []Worktree
		current   *Worktree
	)
	flush := func() {
		if current != nil {
			worktrees = append(worktrees, *current)
			current = nil
		}
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			flush()
			continue
		}
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			current = &Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case current == nil:
			// Attribute lines before any worktree header are malformed;
			// skip rather than guess an owner.
		case strings.HasPrefix(line, "HEAD "):
			current.Commit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = shortRef(strings.TrimPrefix(line, "branch "))
		case line == "bare":
			current.Bare = true
		case line == "detached":
			current.Detached = true
		case line == "locked" || strings.HasPrefix(line, "locked "):
			current.Locked = true
		case line == "prunable" || strings.HasPrefix(line, "prunable "):
			current.Prunable = true
		}
	}
	flush()
	return worktrees
}

func shortRef(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
