// pattern: Imperative Shell

package swarm

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultAgentFiles are the shared assistant configuration paths
// copied from a parent worktree into its children.
var DefaultAgentFiles = []string{".claude", "CLAUDE.md", ".mcp.json"}

// CopyAgentFiles copies shared assistant configuration from the parent
// worktree into every successful child. Missing sources are skipped
// silently; a copy failure for one child is logged and does not block
// the others. Returns the number of children that received files.
func (c *Coordinator) CopyAgentFiles(ctx context.Context, parentRoot string, results []ChildResult, files []string) int {
	if len(files) == 0 {
		files = DefaultAgentFiles
	}
	copied := 0
	for _, r := range results {
		if !r.Success || r.WorktreePath == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if err := copyInto(parentRoot, r.WorktreePath, files); err != nil {
			c.log.Warn("copying agent files failed", "child", r.IssueID, "error", err)
			continue
		}
		copied++
	}
	return copied
}

// copyInto copies each named file or directory from src into dst,
// preserving relative layout. Absent sources are not an error.
func copyInto(src, dst string, files []string) error {
	for _, name := range files {
		from := filepath.Join(src, name)
		info, err := os.Stat(from)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		to := filepath.Join(dst, name)
		if info.IsDir() {
			if err := copyTree(from, to); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(from, to, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
