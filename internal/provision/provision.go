// pattern: Imperative Shell

// Package provision prepares fresh child worktrees with the
// uncommitted environment a plain checkout lacks: local env files and
// per-branch database branches.
package provision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gitloom/internal/logging"
)

// Executor runs a host command in a directory and returns its stdout.
type Executor func(ctx context.Context, dir, name string, args ...string) (string, error)

// Provisioner applies the configured provisioning steps to child
// worktrees.
type Provisioner struct {
	copyEnv   bool
	dbCommand string
	exec      Executor
	log       *logging.ScopedLogger
}

func New(copyEnv bool, dbCommand string, exec Executor, log *logging.ScopedLogger) *Provisioner {
	if exec == nil {
		exec = hostExec
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Provisioner{copyEnv: copyEnv, dbCommand: dbCommand, exec: exec, log: log}
}

// Enabled reports whether any provisioning step is configured.
func (p *Provisioner) Enabled() bool {
	return p.copyEnv || p.dbCommand != ""
}

// ProvisionChild runs every configured step for one child worktree.
// The signature matches what the swarm coordinator expects from an
// environment provisioner. The first failing step reports; earlier
// steps keep whatever they already did.
func (p *Provisioner) ProvisionChild(ctx context.Context, parentDir, childDir, branch string) error {
	if p.copyEnv {
		copied, err := CopyEnvFiles(parentDir, childDir)
		if err != nil {
			return err
		}
		if copied > 0 {
			p.log.Debug("copied env files", "count", copied, "child", childDir)
		}
	}
	if p.dbCommand != "" {
		if err := p.DatabaseBranch(ctx, childDir, branch); err != nil {
			return err
		}
	}
	return nil
}

// CopyEnvFiles copies the parent worktree's top-level .env* files
// into the child, skipping any that already exist there. Returns how
// many files were copied.
func CopyEnvFiles(parentDir, childDir string) (int, error) {
	entries, err := os.ReadDir(parentDir)
	if err != nil {
		return 0, fmt.Errorf("reading parent worktree: %w", err)
	}

	copied := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), ".env") {
			continue
		}
		dst := filepath.Join(childDir, entry.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := copyFile(filepath.Join(parentDir, entry.Name()), dst); err != nil {
			return copied, fmt.Errorf("copying %s: %w", entry.Name(), err)
		}
		copied++
	}
	return copied, nil
}

// DatabaseBranch runs the configured database-branch command in the
// child worktree with {branch} substituted. The template is split on
// whitespace; quoting is not interpreted.
func (p *Provisioner) DatabaseBranch(ctx context.Context, childDir, branch string) error {
	rendered := strings.ReplaceAll(p.dbCommand, "{branch}", branch)
	fields := strings.Fields(rendered)
	if len(fields) == 0 {
		return nil
	}

	p.log.Debug("creating database branch", "branch", branch, "command", fields[0])
	if _, err := p.exec(ctx, childDir, fields[0], fields[1:]...); err != nil {
		return fmt.Errorf("database branch for %s: %w", branch, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
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
