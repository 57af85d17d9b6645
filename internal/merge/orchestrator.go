// pattern: Imperative Shell

// Package merge reconverges a loom branch with the mainline, with one
// bounded agent-assisted recovery attempt when conflicts stop the
// operation.
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitloom/internal/agent"
	"gitloom/internal/git"
	"gitloom/internal/logging"
	"gitloom/internal/prompt"
	"gitloom/internal/worktree"
)

// Mode selects the integration operation.
type Mode string

const (
	// ModeRebase rewrites the loom branch onto the mainline, inside
	// the loom worktree.
	ModeRebase Mode = "rebase"
	// ModeMerge merges the loom branch into the mainline, inside the
	// main worktree.
	ModeMerge Mode = "merge"
)

// Options control one orchestrator run.
type Options struct {
	Mode Mode
	// Force suppresses the already-up-to-date short circuit.
	Force bool
	// DryRun stops after the read-only checks and reports what would
	// have run.
	DryRun bool
	// Interactive hands the recovery agent the user's terminal.
	Interactive bool
	// NoAgent disables recovery even when an agent is available.
	NoAgent bool
}

// Outcome is the result of one run. The JSON field names are a
// cross-process contract consumed by scripting layers; they must not
// change.
type Outcome struct {
	ConflictsDetected bool   `json:"conflictsDetected"`
	ClaudeLaunched    bool   `json:"claudeLaunched"`
	ConflictsResolved bool   `json:"conflictsResolved"`
	Error             string `json:"error,omitempty"`

	// Summary is a human-readable line for terminal output. It is not
	// part of the wire contract.
	Summary string `json:"-"`
}

// Orchestrator drives the rebase-or-merge workflow for one worktree.
type Orchestrator struct {
	registry *worktree.Registry
	run      git.Runner
	recovery agent.Capability
	log      *logging.ScopedLogger
}

// New builds an orchestrator. The recovery capability is decided by
// the caller at construction; the orchestrator never probes for an
// agent itself.
func New(registry *worktree.Registry, run git.Runner, recovery agent.Capability, log *logging.ScopedLogger) *Orchestrator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Orchestrator{registry: registry, run: run, recovery: recovery, log: log}
}

// Run validates the calling location, checks that there is work to do,
// executes the integration, and routes conflicts through exactly one
// recovery attempt. Validation failures leave git state untouched.
func (o *Orchestrator) Run(ctx context.Context, cwd string, opts Options) (*Outcome, error) {
	if opts.Mode == "" {
		opts.Mode = ModeRebase
	}

	wc, err := o.registry.ValidateContext(ctx, cwd, true)
	if err != nil {
		return fail(err), err
	}
	if wc.Branch == "" {
		err := fmt.Errorf("worktree %s has a detached HEAD; check out its branch first", wc.Root)
		return fail(err), err
	}

	mainWt, ok := o.registry.MainWorktree(wc.Population)
	if !ok || mainWt.Branch == "" {
		err := errors.New("cannot determine the mainline branch for this repository")
		return fail(err), err
	}
	mainline := mainWt.Branch

	exists, err := git.BranchExists(ctx, o.run, wc.Root, mainline)
	if err != nil {
		return fail(err), err
	}
	if !exists {
		err := fmt.Errorf("mainline branch %q does not exist", mainline)
		return fail(err), err
	}

	upToDate, err := o.upToDate(ctx, wc, mainline, opts.Mode)
	if err != nil {
		return fail(err), err
	}
	if upToDate && !opts.Force {
		o.log.Info("nothing to integrate", "branch", wc.Branch, "mainline", mainline)
		return &Outcome{Summary: fmt.Sprintf("branch %s is already up to date with %s", wc.Branch, mainline)}, nil
	}

	execDir, args := o.plan(wc, mainWt, opts.Mode)

	if opts.DryRun {
		return &Outcome{Summary: fmt.Sprintf("would run 'git %s' in %s", strings.Join(args, " "), execDir)}, nil
	}

	if opts.Mode == ModeMerge {
		entries, err := git.Status(ctx, o.run, execDir)
		if err != nil {
			return fail(err), err
		}
		if !git.IsClean(entries) {
			err := fmt.Errorf("main worktree %s has uncommitted changes; commit or stash them before merging", execDir)
			return fail(err), err
		}
	}

	o.log.Info("executing integration", "operation", string(opts.Mode), "branch", wc.Branch, "mainline", mainline, "dir", execDir)

	if _, execErr := o.run(ctx, execDir, args...); execErr != nil {
		conflicts, probeErr := git.ConflictingFiles(ctx, o.run, execDir)
		if probeErr != nil || len(conflicts) == 0 {
			// Not conflict-shaped: infrastructure failures are fatal
			// and never routed to the agent.
			return fail(execErr), execErr
		}
		return o.recover(ctx, wc, mainline, execDir, conflicts, opts)
	}

	return &Outcome{Summary: fmt.Sprintf("%s completed cleanly", opts.Mode)}, nil
}

// plan decides where the operation runs and what it runs. Rebase
// happens inside the loom worktree; merge happens inside the main
// worktree, since that is where the mainline is checked out.
func (o *Orchestrator) plan(wc *worktree.Context, mainWt git.Worktree, mode Mode) (string, []string) {
	if mode == ModeMerge {
		return mainWt.Path, []string{"merge", "--no-edit", wc.Branch}
	}
	return wc.Root, []string{"rebase", mainWt.Branch}
}

// upToDate answers "is there anything to do": a rebase is a no-op when
// the branch already contains the mainline, a merge when the mainline
// already contains the branch.
func (o *Orchestrator) upToDate(ctx context.Context, wc *worktree.Context, mainline string, mode Mode) (bool, error) {
	if mode == ModeMerge {
		return git.IsAncestor(ctx, o.run, wc.Root, wc.Branch, mainline)
	}
	return git.IsAncestor(ctx, o.run, wc.Root, mainline, wc.Branch)
}

// recover runs the bounded recovery loop: exactly one agent attempt,
// then a post-condition check on conflict markers. There is no second
// attempt; an assistant that failed once gets handed back to a human.
func (o *Orchestrator) recover(ctx context.Context, wc *worktree.Context, mainline, execDir string, conflicts []string, opts Options) (*Outcome, error) {
	outcome := &Outcome{ConflictsDetected: true}
	o.log.Warn("conflicts detected", "operation", string(opts.Mode), "files", len(conflicts))

	inv, ok := o.recovery.Invoker()
	if opts.NoAgent || !ok {
		reason := o.recovery.Reason()
		if opts.NoAgent {
			reason = "agent recovery disabled"
		}
		outcome.Error = manualResolutionMessage(opts.Mode, execDir, reason)
		return outcome, errors.New(outcome.Error)
	}

	task, err := prompt.Conflict(prompt.ConflictData{
		Operation: string(opts.Mode),
		Branch:    wc.Branch,
		Mainline:  mainline,
		Files:     conflicts,
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome, err
	}

	outcome.ClaudeLaunched = true
	o.log.Info("launching recovery agent", "dir", execDir, "conflicts", len(conflicts))
	if _, invokeErr := inv.Invoke(ctx, task, agent.Options{WorkingDir: execDir, Interactive: opts.Interactive}); invokeErr != nil {
		// The agent is opaque; its failure only matters through the
		// post-condition check below.
		o.log.Warn("recovery agent did not finish cleanly", "error", invokeErr)
	}

	resolved, err := o.verifyAndConclude(ctx, execDir, opts.Mode)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, err
	}
	if !resolved {
		outcome.Error = manualResolutionMessage(opts.Mode, execDir, "conflicts remain after one automatic recovery attempt")
		return outcome, errors.New(outcome.Error)
	}

	outcome.ConflictsResolved = true
	outcome.Summary = fmt.Sprintf("%s conflicts resolved automatically", opts.Mode)
	return outcome, nil
}

// verifyAndConclude re-checks repository state after recovery and, if
// everything is clean, finishes the paused operation. A failure to
// conclude (the next commit in a rebase sequence conflicting, for
// example) counts as unresolved: the recovery budget is already spent.
func (o *Orchestrator) verifyAndConclude(ctx context.Context, dir string, mode Mode) (bool, error) {
	unmerged, err := git.ConflictingFiles(ctx, o.run, dir)
	if err != nil {
		return false, err
	}
	if len(unmerged) > 0 {
		return false, nil
	}
	markers, err := git.FilesWithConflictMarkers(ctx, o.run, dir)
	if err != nil {
		return false, err
	}
	if len(markers) > 0 {
		return false, nil
	}

	if mode == ModeMerge {
		inProgress, err := git.MergeInProgress(ctx, o.run, dir)
		if err != nil {
			return false, err
		}
		if inProgress {
			if _, err := o.run(ctx, dir, "commit", "--no-edit"); err != nil {
				return false, nil
			}
		}
		return true, nil
	}

	inProgress, err := git.RebaseInProgress(ctx, o.run, dir)
	if err != nil {
		return false, err
	}
	if inProgress {
		if _, err := o.run(ctx, dir, "-c", "core.editor=true", "rebase", "--continue"); err != nil {
			return false, nil
		}
	}
	return true, nil
}

func manualResolutionMessage(mode Mode, dir, reason string) string {
	op := string(mode)
	return fmt.Sprintf("%s: resolve the conflicts in %s manually, then run 'git %s --continue' (or 'git %s --abort' to back out)", reason, dir, op, op)
}

func fail(err error) *Outcome {
	return &Outcome{Error: err.Error()}
}
