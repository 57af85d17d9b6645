// pattern: Functional Core
package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
)

// PrintAgentHelp prints a comprehensive guide for driving gitloom from
// an orchestrating agent. It combines static prose with a dynamic
// command reference pulled from registered commands.
func (a *App) PrintAgentHelp(w io.Writer) {
	// Header
	fmt.Fprintln(w, "AGENT ORCHESTRATION GUIDE")
	fmt.Fprintln(w, "========================")
	fmt.Fprintln(w)

	// Overview
	fmt.Fprintln(w, "OVERVIEW")
	fmt.Fprintln(w, "--------")
	fmt.Fprintln(w, "Gitloom manages looms: git worktrees paired with branches and orchestration")
	fmt.Fprintln(w, "records, giving each task an isolated working copy of one repository. There")
	fmt.Fprintln(w, "is no daemon. Every command talks to git directly and works from any")
	fmt.Fprintln(w, "worktree, including nested subdirectories.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Worktrees live under <repo>/.worktrees/<branch>; records live in the main")
	fmt.Fprintln(w, "worktree under .gitloom/looms/, one JSON file per loom. Scripts may read the")
	fmt.Fprintln(w, "record files directly; their field names are stable.")
	fmt.Fprintln(w)

	// Workflow
	fmt.Fprintln(w, "WORKFLOW")
	fmt.Fprintln(w, "--------")
	fmt.Fprintln(w, "The typical single-task workflow:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Create a loom for the task:")
	fmt.Fprintln(w, "     gitloom loom create fix-login --issue 123")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "     This creates branch loom/fix-login, checks it out in a fresh worktree,")
	fmt.Fprintln(w, "     attaches the issue's title and body to the record, and prints the path.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  2. Work inside the printed worktree path.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  3. Keep the branch current while you work:")
	fmt.Fprintln(w, "     gitloom merge rebase")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  4. Land the finished branch on the mainline:")
	fmt.Fprintln(w, "     gitloom merge merge")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  5. Tear the loom down:")
	fmt.Fprintln(w, "     gitloom loom remove")
	fmt.Fprintln(w)

	// Dynamic command reference
	a.printCommandReference(w)

	// Swarm pattern
	fmt.Fprintln(w, "SWARM PATTERN")
	fmt.Fprintln(w, "-------------")
	fmt.Fprintln(w, "A swarm splits one parent loom into parallel child worktrees, one per work")
	fmt.Fprintln(w, "item, each branched from the parent:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  gitloom loom create auth --issue 200")
	fmt.Fprintln(w, "  cd .worktrees/loom/auth")
	fmt.Fprintln(w, "  gitloom swarm create --issue 201 --issue 202 --json")
	fmt.Fprintln(w, "  gitloom swarm open")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Key behaviors:")
	fmt.Fprintln(w, "  - Items can come from a JSON file instead of tracker refs:")
	fmt.Fprintln(w, "    --file items.json with [{\"id\",\"title\",\"body\",\"role\",\"dependsOn\"}].")
	fmt.Fprintln(w, "  - Each child gets the parent's agent files (.claude, CLAUDE.md, .mcp.json)")
	fmt.Fprintln(w, "    and a TASK.md holding its kickoff prompt.")
	fmt.Fprintln(w, "  - One child failing never stops the others; read per-child results.")
	fmt.Fprintln(w, "  - 'swarm open' builds a tmux session with one window per child and types")
	fmt.Fprintln(w, "    the agent command into each. Attach with the printed tmux command.")
	fmt.Fprintln(w, "  - Re-run 'swarm copy-agents' after changing shared agent files.")
	fmt.Fprintln(w)

	// Conflict recovery
	fmt.Fprintln(w, "CONFLICT RECOVERY")
	fmt.Fprintln(w, "-----------------")
	fmt.Fprintln(w, "When a rebase or merge hits conflicts, gitloom launches the configured")
	fmt.Fprintln(w, "assistant once against the conflicted worktree, then re-checks for conflict")
	fmt.Fprintln(w, "markers. There is never a second automatic attempt.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  - '--no-agent' skips the attempt and reports the conflicts immediately.")
	fmt.Fprintln(w, "  - '--interactive' hands the assistant your terminal instead of running it")
	fmt.Fprintln(w, "    headless.")
	fmt.Fprintln(w, "  - If conflicts remain, the operation stays paused in the worktree; resolve")
	fmt.Fprintln(w, "    by hand and run 'git rebase --continue' (or 'git merge --continue').")
	fmt.Fprintln(w)

	// JSON output
	fmt.Fprintln(w, "JSON OUTPUT")
	fmt.Fprintln(w, "-----------")
	fmt.Fprintln(w, "Commands that take '--json' print one JSON value per line on stdout:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  merge rebase/merge — one outcome object:")
	fmt.Fprintln(w, "    {\"conflictsDetected\",\"claudeLaunched\",\"conflictsResolved\",\"error\"?}")
	fmt.Fprintln(w, "  swarm create — one result object per child:")
	fmt.Fprintln(w, "    {\"issueId\",\"worktreePath\",\"branch\",\"success\",\"error\"?}")
	fmt.Fprintln(w, "  loom list/show — the stored record(s) verbatim.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Human diagnostics go to stderr, so stdout stays parseable.")
	fmt.Fprintln(w)

	// Exit codes
	fmt.Fprintln(w, "EXIT CODES")
	fmt.Fprintln(w, "----------")
	fmt.Fprintln(w, "  0  Success")
	fmt.Fprintln(w, "  1  Error (command failed, conflicts unresolved, invalid arguments)")
	fmt.Fprintln(w, "  2  Context error: wrong directory for the operation. The second stderr")
	fmt.Fprintln(w, "     line is a suggestion your orchestrator can act on directly.")
}

// printCommandReference prints the dynamic command reference section
// by iterating registered commands and groups.
func (a *App) printCommandReference(w io.Writer) {
	fmt.Fprintln(w, "COMMAND REFERENCE")
	fmt.Fprintln(w, "-----------------")
	fmt.Fprintln(w)

	// Ungrouped commands in defined order
	fmt.Fprintln(w, "Top-level commands:")
	for _, name := range []string{"status", "projects", "completion", "version"} {
		if cmd, ok := a.commands[name]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", cmd.Name, cmd.Summary)
			fmt.Fprintf(w, "               %s\n", cmd.Usage)
		}
	}
	fmt.Fprintln(w)

	// Groups in defined order
	for _, groupName := range []string{"loom", "merge", "swarm"} {
		group, ok := a.groups[groupName]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s commands — %s:\n", group.Name, group.Summary)
		names := slices.Sorted(maps.Keys(group.Commands))
		for _, name := range names {
			cmd := group.Commands[name]
			fmt.Fprintf(w, "  %-12s %s\n", fmt.Sprintf("%s %s", groupName, cmd.Name), cmd.Summary)
			fmt.Fprintf(w, "               %s\n", cmd.Usage)
		}
		fmt.Fprintln(w)
	}
}
