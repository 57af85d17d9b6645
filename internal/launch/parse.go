// pattern: Functional Core

package launch

import (
	"bufio"
	"strconv"
	"strings"
)

// Session is one host tmux session.
type Session struct {
	Name     string
	Windows  int
	Attached bool
}

// IsActive reports whether the session has an attached client.
func (s Session) IsActive() bool {
	return s.Attached
}

// ParseListSessions parses tmux list-sessions output.
// The format is: "name: N windows (created DATE) [(attached)]".
// Empty lines and malformed lines are skipped gracefully.
func ParseListSessions(output string) []Session {
	var sessions []Session

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		session := parseSessionLine(line)
		if session.Name != "" {
			sessions = append(sessions, session)
		}
	}

	return sessions
}

// parseSessionLine parses a single line from tmux list-sessions output.
func parseSessionLine(line string) Session {
	var session Session

	// Split on ": " to get the name; session names may themselves
	// contain colons.
	parts := strings.SplitN(line, ": ", 2)
	if len(parts) < 2 {
		return session
	}
	session.Name = parts[0]

	// tmux uses "1 window" (singular) or "N windows" (plural)
	rest := parts[1]
	windowIdx := strings.Index(rest, " window")
	if windowIdx > 0 {
		if n, err := strconv.Atoi(rest[:windowIdx]); err == nil {
			session.Windows = n
		}
	}

	session.Attached = strings.Contains(line, "(attached)")

	return session
}
