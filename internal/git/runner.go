// pattern: Imperative Shell

package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a git command in dir and returns its stdout.
// Implementations must fold stderr detail into returned errors so callers
// can surface the tool's own diagnostics verbatim.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// CommandError is returned when the git binary exits non-zero.
// Detail carries the trimmed stderr (or stdout when stderr is empty),
// which is what users need to diagnose tool failures.
type CommandError struct {
	Args   []string
	Detail string
	Code   int // process exit code, -1 when the command never ran
	Err    error
}

func (e *CommandError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %s: %v", strings.Join(e.Args, " "), e.Detail, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner shells out to the git binary on PATH. It is the production
// Runner; tests inject fakes instead.
func ExecRunner(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return stdout.String(), &CommandError{Args: args, Detail: detail, Code: code, Err: err}
	}
	return stdout.String(), nil
}

// busyMarkers identify failures caused by git's own repository locking.
// These are retryable by the user, not bugs: another git process holds
// the lock and will release it.
var busyMarkers = []string{
	"index.lock",
	"Another git process",
	"could not lock",
	"Resource temporarily unavailable",
}

// IsBusy reports whether err looks like a transient repository-lock
// failure from the underlying tool.
func IsBusy(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	for _, marker := range busyMarkers {
		if strings.Contains(cmdErr.Detail, marker) {
			return true
		}
	}
	return false
}

// exitedWith reports whether err is a CommandError with the given exit
// code. Used for plumbing commands that answer yes/no via exit status.
func exitedWith(err error, code int) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return cmdErr.Code == code
}
