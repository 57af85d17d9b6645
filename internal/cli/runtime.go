// pattern: Imperative Shell
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gitloom/internal/config"
	"gitloom/internal/git"
	"gitloom/internal/logging"
	"gitloom/internal/loom"
	"gitloom/internal/worktree"
)

// Runtime carries the shared wiring every command handler needs.
// Streams, the exit function, the working directory, and the git
// runner are all injectable so command handlers can be exercised in
// tests without a real process exit or a real repository.
type Runtime struct {
	Config config.Config

	// Logs may be nil; loggers then degrade to no-ops.
	Logs *logging.Manager

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	// ExitFunc is called to exit the process. Defaults to os.Exit.
	ExitFunc func(int)

	// WorkDir is where commands resolve their worktree context from.
	// Defaults to the process working directory.
	WorkDir string

	// Run executes git commands. Defaults to git.ExecRunner.
	Run git.Runner
}

func (rt *Runtime) setDefaults() {
	if rt.Stdout == nil {
		rt.Stdout = os.Stdout
	}
	if rt.Stderr == nil {
		rt.Stderr = os.Stderr
	}
	if rt.ExitFunc == nil {
		rt.ExitFunc = os.Exit
	}
	if rt.Run == nil {
		rt.Run = git.ExecRunner
	}
	if rt.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			rt.WorkDir = wd
		} else {
			rt.WorkDir = "."
		}
	}
}

// logger returns a scoped logger, a no-op when no manager is wired.
func (rt *Runtime) logger(scope string) *logging.ScopedLogger {
	if rt.Logs == nil {
		return logging.NopLogger()
	}
	return rt.Logs.For(scope)
}

// registry builds the worktree registry for one command run.
func (rt *Runtime) registry() *worktree.Registry {
	return worktree.NewRegistry(rt.Run, rt.Config.MainBranch, rt.logger("registry"))
}

// resolved bundles what a repository-bound command starts from.
type resolved struct {
	registry *worktree.Registry
	wc       *worktree.Context
	// home is the main worktree root, where gitloom keeps the
	// repository's records regardless of which worktree a command
	// runs from.
	home  string
	store *loom.Store
}

// resolve validates the working directory and locates the repository's
// record store. mainForbidden rejects the main worktree for operations
// that must run from a loom.
func (rt *Runtime) resolve(ctx context.Context, mainForbidden bool) (*resolved, error) {
	reg := rt.registry()
	wc, err := reg.ValidateContext(ctx, rt.WorkDir, mainForbidden)
	if err != nil {
		return nil, err
	}
	mainWt, ok := reg.MainWorktree(wc.Population)
	if !ok {
		return nil, errors.New("cannot determine the repository's main worktree")
	}
	return &resolved{
		registry: reg,
		wc:       wc,
		home:     mainWt.Path,
		store:    loom.NewStore(mainWt.Path, rt.logger("store")),
	}, nil
}

// fail reports err and exits. Errors carrying a remediation suggestion
// are misuse the caller can correct, reported with the suggestion and
// exit code 2; everything else exits 1.
func (rt *Runtime) fail(err error) error {
	fmt.Fprintf(rt.Stderr, "error: %v\n", err)
	var s worktree.Suggester
	if errors.As(err, &s) {
		fmt.Fprintf(rt.Stderr, "  %s\n", s.Suggestion())
		rt.ExitFunc(2)
		return err
	}
	if git.IsBusy(err) {
		fmt.Fprintf(rt.Stderr, "  another git process holds the repository lock; retry once it finishes\n")
	}
	rt.ExitFunc(1)
	return err
}

// usage prints a usage line and exits 1.
func (rt *Runtime) usage(line string) error {
	fmt.Fprintf(rt.Stderr, "%s\n", line)
	rt.ExitFunc(1)
	return errors.New("usage")
}

// writeJSONLine writes v as one line of JSON. Commands with --json
// emit one value per line so scripting layers can stream results.
func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
