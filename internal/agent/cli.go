// pattern: Imperative Shell

package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creack/pty"

	"gitloom/internal/logging"
)

// CLIInvoker runs an assistant CLI (claude or compatible) as a child
// process. Claude-style commands get headless flags injected; anything
// else receives only the configured extra args plus the task prompt.
type CLIInvoker struct {
	Command   string
	ExtraArgs []string
	Model     string

	log *logging.ScopedLogger
}

// NewCLIInvoker builds an invoker for the configured agent command.
func NewCLIInvoker(command string, extraArgs []string, model string, log *logging.ScopedLogger) *CLIInvoker {
	if log == nil {
		log = logging.NopLogger()
	}
	return &CLIInvoker{Command: command, ExtraArgs: extraArgs, Model: model, log: log}
}

// BuildArgs assembles the argv tail for one invocation. The task
// prompt is always the final argument.
func BuildArgs(command string, extraArgs []string, model, task string) []string {
	var args []string
	if IsClaudeCommand(command) {
		args = append(args, "-p", "--dangerously-skip-permissions")
		if model != "" {
			args = append(args, "--model", model)
		}
	}
	args = append(args, extraArgs...)
	args = append(args, task)
	return args
}

// IsClaudeCommand matches the claude CLI by base name, so absolute
// paths and versioned wrappers like /usr/local/bin/claude still get
// headless flags.
func IsClaudeCommand(command string) bool {
	base := filepath.Base(command)
	return base == "claude" || strings.HasPrefix(base, "claude-")
}

// Invoke runs the assistant to completion in opts.WorkingDir and
// returns its captured output. The call blocks for as long as the
// assistant runs; cancellation, if any, comes from ctx.
func (inv *CLIInvoker) Invoke(ctx context.Context, task string, opts Options) (string, error) {
	args := BuildArgs(inv.Command, inv.ExtraArgs, inv.Model, task)
	if opts.Interactive {
		return inv.runInteractive(ctx, args, opts.WorkingDir)
	}
	return inv.runCaptured(ctx, args, opts.WorkingDir)
}

// runCaptured executes the assistant headless, streaming its output
// lines into the log as they arrive and accumulating stdout for the
// caller.
func (inv *CLIInvoker) runCaptured(ctx context.Context, args []string, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, inv.Command, args...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("agent stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("agent stderr pipe: %w", err)
	}

	inv.log.Info("starting agent", "command", inv.Command, "dir", dir)

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting agent %s: %w", inv.Command, err)
	}

	var transcript strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			transcript.WriteString(line)
			transcript.WriteByte('\n')
			inv.log.Info(line, "stream", "stdout")
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			inv.log.Info(scanner.Text(), "stream", "stderr")
		}
	}()

	wg.Wait()
	err = cmd.Wait()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			inv.log.Warn("agent exited", "exit_code", exitErr.ExitCode())
			return transcript.String(), fmt.Errorf("agent %s exited with code %d", inv.Command, exitErr.ExitCode())
		}
		return transcript.String(), fmt.Errorf("agent %s: %w", inv.Command, err)
	}

	inv.log.Info("agent finished")
	return transcript.String(), nil
}

// runInteractive executes the assistant under a pty so it renders as
// if it owned the terminal, while its output is teed into a transcript.
// Input forwarding is line-oriented; the assistant still sees a tty.
func (inv *CLIInvoker) runInteractive(ctx context.Context, args []string, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, inv.Command, args...)
	cmd.Dir = dir

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return "", fmt.Errorf("starting agent pty: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	inv.log.Info("starting interactive agent", "command", inv.Command, "dir", dir)

	// Forward the user's keystrokes for as long as the pty lives.
	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()

	var transcript strings.Builder
	tee := io.MultiWriter(os.Stdout, &transcript)
	_, _ = io.Copy(tee, ptmx)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return transcript.String(), fmt.Errorf("agent %s exited with code %d", inv.Command, exitErr.ExitCode())
		}
		return transcript.String(), fmt.Errorf("agent %s: %w", inv.Command, err)
	}
	return transcript.String(), nil
}
