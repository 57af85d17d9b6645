// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	flag "github.com/spf13/pflag"

	"gitloom/internal/discovery"
	"gitloom/internal/git"
)

// BuildApp creates and configures the CLI application with all
// commands and groups.
func BuildApp(version string, rt *Runtime) *App {
	rt.setDefaults()
	app := NewApp(version)

	app.AddCommand(&Command{
		Name:    "status",
		Summary: "Show the current worktree and its loom record",
		Usage:   "Usage: gitloom status",
		Run: func(args []string) error {
			return runStatus(rt)
		},
	})

	app.AddCommand(&Command{
		Name:    "projects",
		Summary: "List repositories under the configured scan paths",
		Usage:   "Usage: gitloom projects [--json]",
		Run: func(args []string) error {
			return runProjects(rt, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "completion",
		Summary: "Print the bash completion script",
		Usage:   "Usage: gitloom completion",
		Run: func(args []string) error {
			fmt.Fprint(rt.Stdout, completionScript)
			return nil
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: gitloom version",
		Run: func(args []string) error {
			fmt.Fprintln(rt.Stdout, version)
			return nil
		},
	})

	loomGroup := app.AddGroup("loom", "Manage loom worktrees")
	RegisterLoomCommands(loomGroup, rt)

	mergeGroup := app.AddGroup("merge", "Reconverge a loom branch with the mainline")
	RegisterMergeCommands(mergeGroup, rt)

	swarmGroup := app.AddGroup("swarm", "Provision child worktrees under a parent")
	RegisterSwarmCommands(swarmGroup, rt)

	return app
}

// runStatus reports where the command runs from: the enclosing
// worktree, its loom record if one exists, and the working tree's
// change counts.
func runStatus(rt *Runtime) error {
	ctx := context.Background()
	res, err := rt.resolve(ctx, false)
	if err != nil {
		return rt.fail(err)
	}
	wc := res.wc

	fmt.Fprintf(rt.Stdout, "worktree: %s\n", wc.Root)
	fmt.Fprintf(rt.Stdout, "branch:   %s\n", wc.Branch)
	role := "loom worktree"
	if wc.Main {
		role = "main worktree"
	}
	fmt.Fprintf(rt.Stdout, "role:     %s\n", role)

	md, err := res.store.ReadBranch(wc.Branch)
	switch {
	case err == nil:
		line := string(md.State)
		if md.IssueKey != "" {
			line += fmt.Sprintf(", %s #%s", md.IssueType, md.IssueKey)
		}
		if md.Title != "" {
			line += ": " + md.Title
		}
		fmt.Fprintf(rt.Stdout, "loom:     %s\n", line)
		if md.ParentLoom != nil && md.ParentLoom.BranchName != "" {
			fmt.Fprintf(rt.Stdout, "parent:   %s\n", md.ParentLoom.BranchName)
		}
		if len(md.ChildIssueNumbers) > 0 {
			fmt.Fprintf(rt.Stdout, "children: %d\n", len(md.ChildIssueNumbers))
		}
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintf(rt.Stdout, "loom:     none\n")
	default:
		return rt.fail(err)
	}

	entries, err := git.Status(ctx, rt.Run, wc.Root)
	if err != nil {
		return rt.fail(err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(rt.Stdout, "changes:  clean\n")
		return nil
	}
	var staged, unstaged, untracked int
	for _, e := range entries {
		switch {
		case e.Code == "??":
			untracked++
		case e.Staged:
			staged++
		default:
			unstaged++
		}
	}
	fmt.Fprintf(rt.Stdout, "changes:  %d staged, %d unstaged, %d untracked\n", staged, unstaged, untracked)
	return nil
}

// runProjects scans the configured paths for git repositories and
// lists them, marking the ones gitloom already manages.
func runProjects(rt *Runtime, args []string) error {
	flags := flag.NewFlagSet("projects", flag.ContinueOnError)
	asJSON := flags.Bool("json", false, "emit one JSON object per repository")
	if err := flags.Parse(args); err != nil {
		return rt.usage("Usage: gitloom projects [--json]")
	}

	projects := discovery.NewScanner().ScanAll(rt.Config.ScanPaths)

	if *asJSON {
		for _, p := range projects {
			if err := writeJSONLine(rt.Stdout, p); err != nil {
				return rt.fail(err)
			}
		}
		return nil
	}

	if len(projects) == 0 {
		fmt.Fprintln(rt.Stdout, "no repositories found under the configured scan paths")
		return nil
	}
	for _, p := range projects {
		marker := " "
		if p.Managed {
			marker = "*"
		}
		fmt.Fprintf(rt.Stdout, "%s %-24s %3d looms  %s\n", marker, p.Name, p.LoomCount, p.Path)
	}
	return nil
}
