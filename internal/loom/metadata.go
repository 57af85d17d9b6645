// pattern: Functional Core

package loom

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of a loom. The transition graph is
// closed: pending becomes active, active finishes as completed or
// failed, and the two terminal states have no way out.
type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// transitions is the closed set of legal state changes.
var transitions = map[State][]State{
	StatePending:   {StateActive},
	StateActive:    {StateCompleted, StateFailed},
	StateCompleted: {},
	StateFailed:    {},
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func (s State) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether s may legally become to. A state may
// always "transition" to itself, which lets rewrites of an unchanged
// record pass validation.
func (s State) CanTransition(to State) bool {
	if s == to {
		return true
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IllegalTransitionError reports a state change outside the closed
// transition table. Records are never written in an illegal state, so
// a corrupt lifecycle fails at the write, not at some later read.
type IllegalTransitionError struct {
	From State
	To   State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal loom state transition %s -> %s", e.From, e.To)
}

// ParentRef is a non-owning reference from a child loom to the parent
// it was spawned under. The parent may have been removed since; readers
// must treat resolution failure as a normal condition.
type ParentRef struct {
	Type         string `json:"type"`
	Identifier   string `json:"identifier"`
	BranchName   string `json:"branchName"`
	WorktreePath string `json:"worktreePath"`
}

// Metadata is the orchestration record attached to one worktree. The
// JSON field names are a cross-process contract: scripting layers read
// these files directly.
type Metadata struct {
	State             State               `json:"state"`
	BranchName        string              `json:"branchName"`
	WorktreePath      string              `json:"worktreePath"`
	IssueType         string              `json:"issueType,omitempty"`
	IssueKey          string              `json:"issueKey,omitempty"`
	Title             string              `json:"title,omitempty"`
	Body              string              `json:"body,omitempty"`
	Role              string              `json:"role,omitempty"`
	ParentLoom        *ParentRef          `json:"parentLoom,omitempty"`
	ChildIssueNumbers []string            `json:"childIssueNumbers,omitempty"`
	DependencyMap     map[string][]string `json:"dependencyMap,omitempty"`
	MCPConfigPath     string              `json:"mcpConfigPath,omitempty"`
	SessionID         string              `json:"sessionId,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// Validate checks the invariants every stored record must satisfy.
func (m *Metadata) Validate() error {
	if !m.State.Valid() {
		return fmt.Errorf("unknown loom state %q", m.State)
	}
	if m.BranchName == "" {
		return fmt.Errorf("loom record missing branch name")
	}
	if m.WorktreePath == "" {
		return fmt.Errorf("loom record missing worktree path")
	}
	return nil
}

// Key derives the stable storage key for the record. Branch names are
// unique across live worktrees (git refuses to check one out twice),
// so the branch name, flattened to a single path segment, keys the
// record.
func (m *Metadata) Key() string {
	return KeyForBranch(m.BranchName)
}

// KeyForBranch flattens a branch name into a filename-safe key.
func KeyForBranch(branch string) string {
	return strings.ReplaceAll(branch, "/", "__")
}
