// pattern: Functional Core

package git

import "strings"

// StatusEntry is one line of `git status --porcelain` v1 output.
type StatusEntry struct {
	// Staged reports whether the index side of the entry carries a
	// change. Untracked files are never staged.
	Staged bool
	// Code is the raw two-character XY status code, e.g. "M ", "??", "R ".
	Code string
	// Path is everything after the code and separator, preserved
	// verbatim. Renames keep the full "old -> new" text as one path.
	Path string
}

// ParseStatus parses `git status --porcelain` v1 output. Paths may
// contain spaces; only the two-character code and the single separator
// space are structural, the rest of the line is the path.
func ParseStatus(out string) []StatusEntry {
	var entries []StatusEntry
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := line[3:]
		if path == "" {
			continue
		}
		entries = append(entries, StatusEntry{
			Staged: isStagedCode(code),
			Code:   code,
			Path:   path,
		})
	}
	return entries
}

func isStagedCode(code string) bool {
	switch code[0] {
	case ' ', '?', '!':
		return false
	}
	return true
}

// conflictCodes are the porcelain XY codes that mark an unmerged entry.
var conflictCodes = map[string]bool{
	"DD": true,
	"AU": true,
	"UD": true,
	"UA": true,
	"DU": true,
	"AA": true,
	"UU": true,
}

// ConflictedPaths returns the paths of unmerged entries, in input order.
func ConflictedPaths(entries []StatusEntry) []string {
	var paths []string
	for _, e := range entries {
		if conflictCodes[e.Code] {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// IsClean reports whether the status output describes no pending
// changes at all, staged or otherwise.
func IsClean(entries []StatusEntry) bool {
	return len(entries) == 0
}
