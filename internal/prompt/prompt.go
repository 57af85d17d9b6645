// pattern: Functional Core

// Package prompt renders the natural-language task descriptions handed
// to the recovery agent. Rendering is pure; callers decide what to do
// with the text.
package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

// ConflictData describes a paused integration step with conflicts.
type ConflictData struct {
	Operation string // "rebase" or "merge"
	Branch    string
	Mainline  string
	Files     []string
}

var conflictTmpl = template.Must(template.New("conflict").Parse(
	`Resolve the {{.Operation}} conflicts in this git worktree.

Branch '{{.Branch}}' is being integrated with '{{.Mainline}}' and the
{{.Operation}} stopped on conflicts in these files:
{{range .Files}}  - {{.}}
{{end}}
For each file, remove all conflict markers and produce a resolution
that preserves the intent of both sides. Stage each resolved file with
'git add'. Do not push, do not create new branches, and do not touch
files outside the conflict set unless a resolution requires it.
`))

// Conflict renders the recovery task for a conflicted operation.
func Conflict(data ConflictData) (string, error) {
	if data.Operation == "" {
		return "", fmt.Errorf("conflict prompt needs an operation")
	}
	var sb strings.Builder
	if err := conflictTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering conflict prompt: %w", err)
	}
	return sb.String(), nil
}

// ChildTaskData describes one swarm work item for its agent session.
type ChildTaskData struct {
	Identifier   string
	Title        string
	Body         string
	ParentBranch string
	Dependencies []string
}

var childTaskTmpl = template.Must(template.New("childTask").Parse(
	`Work on item {{.Identifier}}: {{.Title}}

{{if .Body}}{{.Body}}

{{end}}You are in a dedicated worktree branched from '{{.ParentBranch}}'.
Commit your work on this branch as you go.
{{if .Dependencies}}
This item depends on: {{range $i, $d := .Dependencies}}{{if $i}}, {{end}}{{$d}}{{end}}.
Coordinate with those items' results rather than duplicating them.
{{end}}`))

// ChildTask renders the kickoff task for one swarm child.
func ChildTask(data ChildTaskData) (string, error) {
	if data.Identifier == "" {
		return "", fmt.Errorf("child task prompt needs an identifier")
	}
	var sb strings.Builder
	if err := childTaskTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering child task prompt: %w", err)
	}
	return sb.String(), nil
}
