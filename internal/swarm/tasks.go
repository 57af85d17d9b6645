// pattern: Imperative Shell

package swarm

import (
	"os"
	"path/filepath"

	"gitloom/internal/prompt"
)

// TaskFileName is the kickoff prompt file written into each child
// worktree. Agent sessions read it as their opening instruction.
const TaskFileName = "TASK.md"

// WriteTaskFiles renders and writes each successful child's kickoff
// task file, returning how many were written. Failures are logged and
// skipped; a child without a task file is still a working worktree.
func (c *Coordinator) WriteTaskFiles(parent Parent, items []Item, results []ChildResult) int {
	byID := make(map[string]Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	written := 0
	for _, r := range results {
		if !r.Success {
			continue
		}
		item, ok := byID[r.IssueID]
		if !ok {
			continue
		}
		task, err := prompt.ChildTask(prompt.ChildTaskData{
			Identifier:   item.ID,
			Title:        item.Title,
			Body:         item.Body,
			ParentBranch: parent.Branch,
			Dependencies: item.DependsOn,
		})
		if err != nil {
			c.log.Warn("rendering task file failed", "item", r.IssueID, "error", err)
			continue
		}
		if err := os.WriteFile(filepath.Join(r.WorktreePath, TaskFileName), []byte(task), 0o644); err != nil {
			c.log.Warn("writing task file failed", "item", r.IssueID, "error", err)
			continue
		}
		written++
	}
	return written
}
