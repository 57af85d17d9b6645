// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"gitloom/internal/issue"
	"gitloom/internal/launch"
	"gitloom/internal/loom"
	"gitloom/internal/mcp"
	"gitloom/internal/worktree"
)

// branchForName maps a user-supplied loom name to its branch name.
// Full branch names pass through so output from "loom list" can be
// pasted back in.
func branchForName(name string) string {
	if strings.HasPrefix(name, "loom/") {
		return name
	}
	return "loom/" + name
}

// RegisterLoomCommands registers the loom command group commands.
func RegisterLoomCommands(group *Group, rt *Runtime) {
	group.AddCommand(&Command{
		Name:    "create",
		Summary: "Create a loom worktree on a new branch",
		Usage:   "Usage: gitloom loom create <name> [--issue <ref>] [--base <branch>] [--force] [--open]",
		Run: func(args []string) error {
			flags := flag.NewFlagSet("loom create", flag.ContinueOnError)
			issueRef := flags.String("issue", "", "tracker reference to attach (123, #123, pr/45, URL)")
			base := flags.String("base", "", "base branch for the new branch")
			force := flags.Bool("force", false, "reset an existing branch onto the base")
			open := flags.Bool("open", false, "open the new worktree in a terminal")
			if err := flags.Parse(args); err != nil || len(flags.Args()) != 1 {
				return rt.usage("Usage: gitloom loom create <name> [--issue <ref>] [--base <branch>] [--force] [--open]")
			}
			return runLoomCreate(rt, flags.Args()[0], *issueRef, *base, *force, *open)
		},
	})

	group.AddCommand(&Command{
		Name:    "list",
		Summary: "List the looms of the current repository",
		Usage:   "Usage: gitloom loom list [--json]",
		Run: func(args []string) error {
			flags := flag.NewFlagSet("loom list", flag.ContinueOnError)
			asJSON := flags.Bool("json", false, "emit one JSON record per loom")
			if err := flags.Parse(args); err != nil {
				return rt.usage("Usage: gitloom loom list [--json]")
			}
			return runLoomList(rt, *asJSON)
		},
	})

	group.AddCommand(&Command{
		Name:    "remove",
		Summary: "Remove a loom worktree, its branch, and its record",
		Usage:   "Usage: gitloom loom remove [<name>] [--keep-branch]",
		Run: func(args []string) error {
			flags := flag.NewFlagSet("loom remove", flag.ContinueOnError)
			keepBranch := flags.Bool("keep-branch", false, "delete the worktree and record but keep the branch")
			if err := flags.Parse(args); err != nil || len(flags.Args()) > 1 {
				return rt.usage("Usage: gitloom loom remove [<name>] [--keep-branch]")
			}
			name := ""
			if len(flags.Args()) == 1 {
				name = flags.Args()[0]
			}
			return runLoomRemove(rt, name, *keepBranch)
		},
	})

	group.AddCommand(&Command{
		Name:    "show",
		Summary: "Show one loom's record",
		Usage:   "Usage: gitloom loom show [<name>] [--json]",
		Run: func(args []string) error {
			flags := flag.NewFlagSet("loom show", flag.ContinueOnError)
			asJSON := flags.Bool("json", false, "emit the record as JSON")
			if err := flags.Parse(args); err != nil || len(flags.Args()) > 1 {
				return rt.usage("Usage: gitloom loom show [<name>] [--json]")
			}
			name := ""
			if len(flags.Args()) == 1 {
				name = flags.Args()[0]
			}
			return runLoomShow(rt, name, *asJSON)
		},
	})
}

func runLoomCreate(rt *Runtime, name, issueRef, base string, force, open bool) error {
	ctx := context.Background()
	if err := worktree.ValidateName(name); err != nil {
		return rt.fail(err)
	}
	res, err := rt.resolve(ctx, false)
	if err != nil {
		return rt.fail(err)
	}

	var fetched issue.Issue
	if issueRef != "" {
		fetched, err = issue.NewGHFetcher(nil, rt.logger("issue")).Fetch(ctx, issueRef)
		if err != nil {
			return rt.fail(err)
		}
	}

	branch := branchForName(name)
	path, err := res.registry.Create(ctx, res.home, worktree.CreateSpec{
		Branch:       branch,
		CreateBranch: true,
		BaseBranch:   base,
		Force:        force,
	})
	if err != nil {
		return rt.fail(err)
	}

	md := &loom.Metadata{
		State:        loom.StatePending,
		BranchName:   branch,
		WorktreePath: path,
		IssueType:    fetched.Type,
		IssueKey:     fetched.Key,
		Title:        fetched.Title,
		Body:         fetched.Body,
		SessionID:    uuid.NewString(),
	}

	gen := mcp.NewGenerator(rt.Config.MCPServers, rt.logger("mcp"))
	if gen.Enabled() {
		cfgPath, genErr := gen.Generate(ctx, path, branch)
		if genErr != nil {
			rt.logger("loom").Warn("mcp config generation failed", "branch", branch, "error", genErr)
		} else {
			md.MCPConfigPath = cfgPath
		}
	}

	if err := res.store.Write(md); err != nil {
		// A worktree without a record is unmanaged; roll the creation
		// back rather than leave it half-made.
		_ = res.registry.Remove(ctx, res.home, path)
		_ = res.registry.DeleteBranch(ctx, res.home, branch, true)
		return rt.fail(err)
	}

	fmt.Fprintf(rt.Stdout, "created %s\n", path)
	fmt.Fprintf(rt.Stdout, "  branch %s\n", branch)
	if fetched.Key != "" {
		fmt.Fprintf(rt.Stdout, "  %s #%s: %s\n", fetched.Type, fetched.Key, fetched.Title)
	}

	if open {
		opener := launch.NewOpener(rt.Config.Launch.OpenCommand, nil, rt.logger("launch"))
		if err := opener.Open(ctx, path); err != nil {
			fmt.Fprintf(rt.Stderr, "warning: %v\n", err)
		}
	}
	return nil
}

func runLoomList(rt *Runtime, asJSON bool) error {
	ctx := context.Background()
	res, err := rt.resolve(ctx, false)
	if err != nil {
		return rt.fail(err)
	}
	records, err := res.store.List()
	if err != nil {
		return rt.fail(err)
	}

	if asJSON {
		for _, md := range records {
			if err := writeJSONLine(rt.Stdout, md); err != nil {
				return rt.fail(err)
			}
		}
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(rt.Stdout, "no looms")
		return nil
	}
	for _, md := range records {
		line := fmt.Sprintf("%-9s %-32s %s", md.State, md.BranchName, md.WorktreePath)
		if md.IssueKey != "" {
			line += fmt.Sprintf("  (#%s %s)", md.IssueKey, md.Title)
		}
		fmt.Fprintln(rt.Stdout, line)
	}
	return nil
}

// targetRecord resolves which loom a name argument refers to: the
// named branch's record, or the current worktree's record when name is
// empty.
func targetRecord(rt *Runtime, res *resolved, name string) (*loom.Metadata, error) {
	branch := res.wc.Branch
	if name != "" {
		branch = branchForName(name)
	} else if res.wc.Main {
		return nil, errors.New("the main worktree has no loom; name one or run from a loom worktree")
	}
	md, err := res.store.ReadBranch(branch)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no loom record for branch %s", branch)
	}
	return md, err
}

func runLoomRemove(rt *Runtime, name string, keepBranch bool) error {
	ctx := context.Background()
	res, err := rt.resolve(ctx, false)
	if err != nil {
		return rt.fail(err)
	}
	md, err := targetRecord(rt, res, name)
	if err != nil {
		return rt.fail(err)
	}

	// Worktree first, then branch, then record. The record goes last
	// so a crash mid-removal leaves evidence of what was being torn
	// down, and removal is idempotent end to end.
	if err := res.registry.Remove(ctx, res.home, md.WorktreePath); err != nil {
		return rt.fail(err)
	}
	if !keepBranch {
		if err := res.registry.DeleteBranch(ctx, res.home, md.BranchName, true); err != nil {
			return rt.fail(err)
		}
	}
	if err := res.store.Delete(md.Key()); err != nil {
		return rt.fail(err)
	}

	fmt.Fprintf(rt.Stdout, "removed %s\n", md.BranchName)
	return nil
}

func runLoomShow(rt *Runtime, name string, asJSON bool) error {
	ctx := context.Background()
	res, err := rt.resolve(ctx, false)
	if err != nil {
		return rt.fail(err)
	}
	md, err := targetRecord(rt, res, name)
	if err != nil {
		return rt.fail(err)
	}

	if asJSON {
		return writeJSONLine(rt.Stdout, md)
	}

	fmt.Fprintf(rt.Stdout, "branch:   %s\n", md.BranchName)
	fmt.Fprintf(rt.Stdout, "state:    %s\n", md.State)
	fmt.Fprintf(rt.Stdout, "worktree: %s\n", md.WorktreePath)
	if md.IssueKey != "" {
		fmt.Fprintf(rt.Stdout, "issue:    %s #%s %s\n", md.IssueType, md.IssueKey, md.Title)
	}
	if md.ParentLoom != nil && md.ParentLoom.BranchName != "" {
		parent := md.ParentLoom.BranchName
		if p, ok := res.store.ResolveParent(md); ok {
			parent = fmt.Sprintf("%s (%s)", p.BranchName, p.State)
		} else {
			parent += " (record gone)"
		}
		fmt.Fprintf(rt.Stdout, "parent:   %s\n", parent)
	}
	if len(md.ChildIssueNumbers) > 0 {
		fmt.Fprintf(rt.Stdout, "children: %s\n", strings.Join(md.ChildIssueNumbers, ", "))
	}
	if md.MCPConfigPath != "" {
		fmt.Fprintf(rt.Stdout, "mcp:      %s\n", md.MCPConfigPath)
	}
	fmt.Fprintf(rt.Stdout, "created:  %s\n", md.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(rt.Stdout, "updated:  %s\n", md.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}
