// pattern: Imperative Shell
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"gitloom/internal/agent"
	"gitloom/internal/config"
	"gitloom/internal/issue"
	"gitloom/internal/launch"
	"gitloom/internal/loom"
	"gitloom/internal/mcp"
	"gitloom/internal/provision"
	"gitloom/internal/swarm"
)

// RegisterSwarmCommands registers the swarm command group commands.
func RegisterSwarmCommands(group *Group, rt *Runtime) {
	group.AddCommand(&Command{
		Name:    "create",
		Summary: "Provision one child worktree per work item",
		Usage:   "Usage: gitloom swarm create [--issue <ref>]... [--file <path>] [--model <name>] [--open] [--json]",
		Run: func(args []string) error {
			flags := flag.NewFlagSet("swarm create", flag.ContinueOnError)
			refs := flags.StringArray("issue", nil, "tracker reference for one child (repeatable)")
			file := flags.String("file", "", "JSON file of work items")
			model := flags.String("model", "", "blanket model override for this swarm")
			open := flags.Bool("open", false, "open the swarm session after creating")
			asJSON := flags.Bool("json", false, "emit one JSON result per child")
			if err := flags.Parse(args); err != nil || len(flags.Args()) != 0 {
				return rt.usage("Usage: gitloom swarm create [--issue <ref>]... [--file <path>] [--model <name>] [--open] [--json]")
			}
			if len(*refs) == 0 && *file == "" {
				return rt.usage("swarm create needs at least one --issue or a --file")
			}
			return runSwarmCreate(rt, *refs, *file, *model, *open, *asJSON)
		},
	})

	group.AddCommand(&Command{
		Name:    "copy-agents",
		Summary: "Re-copy shared agent files into every child worktree",
		Usage:   "Usage: gitloom swarm copy-agents",
		Run: func(args []string) error {
			return runSwarmCopyAgents(rt)
		},
	})

	group.AddCommand(&Command{
		Name:    "open",
		Summary: "Open a tmux session with one window per child",
		Usage:   "Usage: gitloom swarm open [--model <name>]",
		Run: func(args []string) error {
			flags := flag.NewFlagSet("swarm open", flag.ContinueOnError)
			model := flags.String("model", "", "blanket model override for the session")
			if err := flags.Parse(args); err != nil || len(flags.Args()) != 0 {
				return rt.usage("Usage: gitloom swarm open [--model <name>]")
			}
			return runSwarmOpen(rt, *model)
		},
	})
}

// fileItem is the on-disk shape of one --file work item.
type fileItem struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Role      string   `json:"role"`
	DependsOn []string `json:"dependsOn"`
}

// collectItems builds the work item list from a JSON file and tracker
// references, in that order.
func collectItems(ctx context.Context, rt *Runtime, refs []string, file string) ([]swarm.Item, error) {
	var items []swarm.Item

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading work item file: %w", err)
		}
		var raw []fileItem
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing work item file %s: %w", file, err)
		}
		for i, it := range raw {
			if it.ID == "" {
				return nil, fmt.Errorf("work item %d in %s has no id", i, file)
			}
			items = append(items, swarm.Item{
				ID:        it.ID,
				Title:     it.Title,
				Body:      it.Body,
				Role:      it.Role,
				DependsOn: it.DependsOn,
			})
		}
	}

	if len(refs) > 0 {
		fetcher := issue.NewGHFetcher(nil, rt.logger("issue"))
		for _, ref := range refs {
			fetched, err := fetcher.Fetch(ctx, ref)
			if err != nil {
				return nil, err
			}
			items = append(items, swarm.Item{
				ID:    fetched.Key,
				Title: fetched.Title,
				Body:  fetched.Body,
				Role:  "worker",
			})
		}
	}

	return items, nil
}

// swarmParent describes the current worktree as a swarm parent. The
// parent's own loom record, when present, supplies the issue identity;
// otherwise the branch itself identifies it.
func swarmParent(res *resolved) swarm.Parent {
	parent := swarm.Parent{
		Branch:       res.wc.Branch,
		WorktreePath: res.wc.Root,
		Type:         "branch",
		Identifier:   res.wc.Branch,
	}
	if md, err := res.store.ReadBranch(res.wc.Branch); err == nil && md.IssueKey != "" {
		parent.Type = md.IssueType
		parent.Identifier = md.IssueKey
	}
	return parent
}

func newCoordinator(rt *Runtime, res *resolved) *swarm.Coordinator {
	var genCfg swarm.ConfigGenerator
	if gen := mcp.NewGenerator(rt.Config.MCPServers, rt.logger("mcp")); gen.Enabled() {
		genCfg = gen.Generate
	}
	var provFn swarm.EnvProvisioner
	cfg := rt.Config.Provision
	if prov := provision.New(cfg.CopyEnvFiles, cfg.DatabaseBranchCommand, nil, rt.logger("provision")); prov.Enabled() {
		provFn = prov.ProvisionChild
	}
	return swarm.NewCoordinator(res.registry, res.store, genCfg, provFn, rt.logger("swarm"))
}

func runSwarmCreate(rt *Runtime, refs []string, file, model string, open, asJSON bool) error {
	ctx := context.Background()
	res, err := rt.resolve(ctx, true)
	if err != nil {
		return rt.fail(err)
	}

	items, err := collectItems(ctx, rt, refs, file)
	if err != nil {
		return rt.fail(err)
	}
	if len(items) == 0 {
		return rt.fail(errors.New("no work items to create"))
	}

	parent := swarmParent(res)
	c := newCoordinator(rt, res)
	results := c.CreateChildren(ctx, parent, items)
	c.WriteTaskFiles(parent, items, results)
	copied := c.CopyAgentFiles(ctx, res.wc.Root, results, rt.Config.AgentFiles)

	created := 0
	for _, r := range results {
		if r.Success {
			created++
		}
	}

	if asJSON {
		for _, r := range results {
			if err := writeJSONLine(rt.Stdout, r); err != nil {
				return rt.fail(err)
			}
		}
	} else {
		for _, r := range results {
			if r.Success {
				fmt.Fprintf(rt.Stdout, "created %-32s %s\n", r.Branch, r.WorktreePath)
			} else {
				fmt.Fprintf(rt.Stdout, "failed  %-32s %s\n", r.Branch, r.Error)
			}
		}
		fmt.Fprintf(rt.Stdout, "%d of %d children created, agent files copied into %d\n", created, len(results), copied)
	}

	// Partial failure is an expected outcome reported per child; only
	// a batch with no survivors exits nonzero.
	if created == 0 {
		rt.ExitFunc(1)
		return errors.New("all children failed")
	}

	if open {
		return openSwarmSession(rt, res, model)
	}
	return nil
}

func runSwarmCopyAgents(rt *Runtime) error {
	ctx := context.Background()
	res, err := rt.resolve(ctx, true)
	if err != nil {
		return rt.fail(err)
	}

	children, err := swarmChildren(res)
	if err != nil {
		return rt.fail(err)
	}
	results := make([]swarm.ChildResult, 0, len(children))
	for _, child := range children {
		results = append(results, swarm.ChildResult{
			IssueID:      child.IssueKey,
			WorktreePath: child.WorktreePath,
			Branch:       child.BranchName,
			Success:      true,
		})
	}

	c := newCoordinator(rt, res)
	copied := c.CopyAgentFiles(ctx, res.wc.Root, results, rt.Config.AgentFiles)
	fmt.Fprintf(rt.Stdout, "agent files copied into %d of %d children\n", copied, len(results))
	return nil
}

func runSwarmOpen(rt *Runtime, model string) error {
	res, err := rt.resolve(context.Background(), true)
	if err != nil {
		return rt.fail(err)
	}
	return openSwarmSession(rt, res, model)
}

// swarmChildren loads the live child records under the current
// worktree's swarm. Children whose records are gone are skipped; the
// parent reference is a relation, not a liveness guarantee, and the
// same tolerance applies downward.
func swarmChildren(res *resolved) ([]*loom.Metadata, error) {
	parentMD, err := res.store.ReadBranch(res.wc.Branch)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("branch %s has no loom record; run 'gitloom swarm create' first", res.wc.Branch)
	}
	if err != nil {
		return nil, err
	}
	if len(parentMD.ChildIssueNumbers) == 0 {
		return nil, fmt.Errorf("no swarm children recorded for %s", res.wc.Branch)
	}

	var children []*loom.Metadata
	for _, id := range parentMD.ChildIssueNumbers {
		md, err := res.store.ReadBranch(swarm.ChildBranch(id))
		if err != nil {
			continue
		}
		children = append(children, md)
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("all recorded children of %s are gone", res.wc.Branch)
	}
	return children, nil
}

func openSwarmSession(rt *Runtime, res *resolved, model string) error {
	ctx := context.Background()
	children, err := swarmChildren(res)
	if err != nil {
		return rt.fail(err)
	}

	if !rt.Config.Launch.Tmux {
		opener := launch.NewOpener(rt.Config.Launch.OpenCommand, nil, rt.logger("launch"))
		for _, child := range children {
			if err := opener.Open(ctx, child.WorktreePath); err != nil {
				fmt.Fprintf(rt.Stderr, "warning: %v\n", err)
			}
		}
		return nil
	}

	windows := make([]launch.WindowSpec, 0, len(children)+1)
	windows = append(windows, launch.WindowSpec{Name: "lead", Dir: res.wc.Root})
	for _, child := range children {
		windows = append(windows, launch.WindowSpec{
			Name:    tmuxName(child.IssueKey),
			Dir:     child.WorktreePath,
			Command: childWindowCommand(rt.Config, model, child.Role),
		})
	}

	session := sessionName(rt.Config.Launch.SessionPrefix, res.wc.Branch)
	tm := launch.NewTmux(nil, rt.logger("launch"))
	if err := tm.EnsureSession(ctx, session, windows); err != nil {
		return rt.fail(err)
	}
	fmt.Fprintf(rt.Stdout, "session %s ready, attach with: %s\n", session, launch.AttachCommand(session))
	return nil
}

// childWindowCommand builds the shell line typed into a child's tmux
// window: the configured agent, the child's resolved model, and its
// task file as the opening prompt.
func childWindowCommand(cfg config.Config, blanketModel, role string) string {
	blanket := blanketModel
	if blanket == "" {
		blanket = cfg.Swarm.Model
	}
	model := swarm.ResolveModel(role, swarm.ModelConfig{
		RoleOverrides: cfg.Swarm.RoleModels,
		SwarmModel:    blanket,
		Defaults:      config.BuiltinRoleModels,
		ItemDefault:   cfg.Agent.Model,
	})

	parts := []string{cfg.Agent.Command}
	if model != "" && agent.IsClaudeCommand(cfg.Agent.Command) {
		parts = append(parts, "--model", model)
	}
	parts = append(parts, cfg.Agent.ExtraArgs...)
	parts = append(parts, fmt.Sprintf(`"$(cat %s)"`, swarm.TaskFileName))
	return strings.Join(parts, " ")
}

var tmuxNameReplacer = strings.NewReplacer("/", "-", ".", "-", ":", "-", " ", "-")

// tmuxName makes an identifier safe for tmux session and window names.
func tmuxName(s string) string {
	return tmuxNameReplacer.Replace(s)
}

// sessionName derives the tmux session name for a parent branch.
func sessionName(prefix, branch string) string {
	base := tmuxName(strings.TrimPrefix(branch, "loom/"))
	if prefix == "" {
		return base
	}
	return prefix + "-" + base
}
