// Package agent runs an external AI coding assistant to completion
// against a worktree. The assistant is opaque: callers learn whether a
// later verification passes, never why the assistant did what it did.
package agent

import (
	"context"
	"os/exec"
)

// Options control one invocation.
type Options struct {
	// WorkingDir is the directory the assistant edits in.
	WorkingDir string
	// Interactive attaches the assistant to the user's terminal
	// through a pty instead of capturing its output silently.
	Interactive bool
}

// Invoker runs a recovery task to completion. Any returned error means
// the attempt was not made or did not finish; it carries no structured
// detail worth inspecting.
type Invoker interface {
	Invoke(ctx context.Context, task string, opts Options) (string, error)
}

// Capability records, once at construction time, whether agent-assisted
// recovery is available. Call sites branch on the capability instead of
// probing the environment mid-operation.
type Capability struct {
	invoker Invoker
	reason  string
}

// Supported wraps a working invoker.
func Supported(inv Invoker) Capability {
	return Capability{invoker: inv}
}

// Unsupported records why no invoker is available. The reason is shown
// to users when an operation would have wanted recovery.
func Unsupported(reason string) Capability {
	return Capability{reason: reason}
}

// Invoker returns the invoker and whether one is available.
func (c Capability) Invoker() (Invoker, bool) {
	return c.invoker, c.invoker != nil
}

// Reason explains an unsupported capability. Empty when supported.
func (c Capability) Reason() string {
	return c.reason
}

// Detect decides the recovery capability for a configured agent
// command. The decision is made here, once: a missing binary surfaces
// as Unsupported with a reason, not as a mid-merge exec failure.
func Detect(inv *CLIInvoker) Capability {
	if inv == nil || inv.Command == "" {
		return Unsupported("no agent command configured")
	}
	if _, err := exec.LookPath(inv.Command); err != nil {
		return Unsupported("agent command " + inv.Command + " not found on PATH")
	}
	return Supported(inv)
}
