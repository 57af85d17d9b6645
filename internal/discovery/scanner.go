// pattern: Imperative Shell

// Package discovery finds git repositories under the configured scan
// paths and reports which of them carry gitloom state.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gitloom/internal/loom"
)

// Scanner discovers repositories in configured scan paths.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanAll scans all provided paths for git repositories. Each path is
// walked one level deep; inaccessible directories are skipped.
// Results are ordered managed-first, then by name.
func (s *Scanner) ScanAll(paths []string) []Project {
	var projects []Project
	seen := make(map[string]bool)

	for _, scanPath := range paths {
		entries, err := os.ReadDir(scanPath)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			projectPath := filepath.Join(scanPath, entry.Name())

			// Resolve symlinks so the same repository reached through
			// two scan paths appears once.
			resolved, err := filepath.EvalSymlinks(projectPath)
			if err != nil {
				resolved = projectPath
			}
			if seen[resolved] {
				continue
			}
			seen[resolved] = true

			if !isGitRepo(resolved) {
				continue
			}

			count := countLoomRecords(resolved)
			projects = append(projects, Project{
				Name:      entry.Name(),
				Path:      resolved,
				LoomCount: count,
				Managed:   count > 0 || hasStateDir(resolved),
			})
		}
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Managed != projects[j].Managed {
			return projects[i].Managed
		}
		return projects[i].Name < projects[j].Name
	})

	return projects
}

// isGitRepo accepts both normal repositories (.git directory) and
// linked worktrees (.git file).
func isGitRepo(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

func hasStateDir(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".gitloom"))
	return err == nil && info.IsDir()
}

// countLoomRecords counts metadata records without opening a store;
// the dashboard header only needs the number.
func countLoomRecords(path string) int {
	entries, err := os.ReadDir(loom.RecordsDir(path))
	if err != nil {
		return 0
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}
	return count
}
