// pattern: Imperative Shell

// Package launch opens agent sessions: tmux sessions with one window
// per child worktree, or a terminal window at a single path.
package launch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"gitloom/internal/logging"
)

// Executor runs a host command and returns its stdout. An empty dir
// inherits the caller's working directory.
type Executor func(ctx context.Context, dir, name string, args ...string) (string, error)

// WindowSpec describes one tmux window of a session.
type WindowSpec struct {
	Name string
	Dir  string
	// Command is typed into the window after creation. Empty leaves
	// the window at a shell prompt.
	Command string
}

// Tmux wraps the host tmux binary.
type Tmux struct {
	exec Executor
	log  *logging.ScopedLogger
}

func NewTmux(exec Executor, log *logging.ScopedLogger) *Tmux {
	if exec == nil {
		exec = hostExec
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Tmux{exec: exec, log: log}
}

// ListSessions returns the host's tmux sessions. A failing tmux
// invocation means no server is running, which is no sessions rather
// than an error.
func (t *Tmux) ListSessions(ctx context.Context) ([]Session, error) {
	output, err := t.exec(ctx, "", "tmux", "list-sessions")
	if err != nil {
		return []Session{}, nil
	}
	return ParseListSessions(output), nil
}

// HasSession reports whether a session with the given name exists.
func (t *Tmux) HasSession(ctx context.Context, name string) bool {
	_, err := t.exec(ctx, "", "tmux", "has-session", "-t", name)
	return err == nil
}

// CreateSession creates a detached session whose first window starts
// in dir.
func (t *Tmux) CreateSession(ctx context.Context, name, windowName, dir string) error {
	args := []string{"new-session", "-d", "-s", name, "-n", windowName}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	if _, err := t.exec(ctx, "", "tmux", args...); err != nil {
		return fmt.Errorf("creating session %s: %w", name, err)
	}
	return nil
}

// NewWindow adds a window to an existing session.
func (t *Tmux) NewWindow(ctx context.Context, session, name, dir string) error {
	args := []string{"new-window", "-t", session + ":", "-n", name}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	if _, err := t.exec(ctx, "", "tmux", args...); err != nil {
		return fmt.Errorf("creating window %s in %s: %w", name, session, err)
	}
	return nil
}

// SendKeys types text into a target pane, then presses Enter.
func (t *Tmux) SendKeys(ctx context.Context, target, keys string) error {
	if _, err := t.exec(ctx, "", "tmux", "send-keys", "-t", target, keys); err != nil {
		return err
	}
	_, err := t.exec(ctx, "", "tmux", "send-keys", "-t", target, "Enter")
	return err
}

// KillSession destroys a session.
func (t *Tmux) KillSession(ctx context.Context, name string) error {
	_, err := t.exec(ctx, "", "tmux", "kill-session", "-t", name)
	return err
}

// EnsureSession brings up a session holding one window per spec,
// creating the session if needed. Windows are added in order; each
// window's Command, when set, is typed into it.
func (t *Tmux) EnsureSession(ctx context.Context, name string, windows []WindowSpec) error {
	if len(windows) == 0 {
		return fmt.Errorf("session %s needs at least one window", name)
	}

	rest := windows
	if !t.HasSession(ctx, name) {
		first := windows[0]
		if err := t.CreateSession(ctx, name, first.Name, first.Dir); err != nil {
			return err
		}
		if err := t.runWindowCommand(ctx, name, first); err != nil {
			return err
		}
		rest = windows[1:]
		t.log.Info("created tmux session", "session", name)
	}

	for _, w := range rest {
		if err := t.NewWindow(ctx, name, w.Name, w.Dir); err != nil {
			return err
		}
		if err := t.runWindowCommand(ctx, name, w); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tmux) runWindowCommand(ctx context.Context, session string, w WindowSpec) error {
	if w.Command == "" {
		return nil
	}
	return t.SendKeys(ctx, session+":"+w.Name, w.Command)
}

// AttachCommand returns the shell command that attaches to a session.
// The -u flag forces UTF-8 handling.
func AttachCommand(name string) string {
	return fmt.Sprintf("tmux -u attach -t %s", name)
}

func hostExec(ctx context.Context, dir, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return "", fmt.Errorf("%s: %s: %w", name, detail, err)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}
