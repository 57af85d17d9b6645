// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"gitloom/internal/agent"
	"gitloom/internal/merge"
)

// RegisterMergeCommands registers the merge command group commands.
func RegisterMergeCommands(group *Group, rt *Runtime) {
	group.AddCommand(&Command{
		Name:    "rebase",
		Summary: "Rebase the current loom branch onto the mainline",
		Usage:   "Usage: gitloom merge rebase [--force] [--dry-run] [--interactive] [--no-agent] [--json]",
		Run: func(args []string) error {
			return runMerge(rt, merge.ModeRebase, args)
		},
	})

	group.AddCommand(&Command{
		Name:    "merge",
		Summary: "Merge the current loom branch into the mainline",
		Usage:   "Usage: gitloom merge merge [--force] [--dry-run] [--interactive] [--no-agent] [--json]",
		Run: func(args []string) error {
			return runMerge(rt, merge.ModeMerge, args)
		},
	})
}

func runMerge(rt *Runtime, mode merge.Mode, args []string) error {
	usage := fmt.Sprintf("Usage: gitloom merge %s [--force] [--dry-run] [--interactive] [--no-agent] [--json]", mode)
	flags := flag.NewFlagSet("merge "+string(mode), flag.ContinueOnError)
	force := flags.Bool("force", false, "run even when already up to date")
	dryRun := flags.Bool("dry-run", false, "report what would run without touching the repository")
	interactive := flags.Bool("interactive", false, "hand the recovery agent the terminal")
	noAgent := flags.Bool("no-agent", false, "never launch the recovery agent")
	asJSON := flags.Bool("json", false, "emit the outcome as JSON")
	if err := flags.Parse(args); err != nil || len(flags.Args()) != 0 {
		return rt.usage(usage)
	}

	inv := agent.NewCLIInvoker(rt.Config.Agent.Command, rt.Config.Agent.ExtraArgs, rt.Config.Agent.Model, rt.logger("agent"))
	orch := merge.New(rt.registry(), rt.Run, agent.Detect(inv), rt.logger("merge"))

	outcome, err := orch.Run(context.Background(), rt.WorkDir, merge.Options{
		Mode:        mode,
		Force:       *force,
		DryRun:      *dryRun,
		Interactive: *interactive,
		NoAgent:     *noAgent,
	})

	if *asJSON {
		// The outcome shape goes to stdout even on failure; the
		// scripting layer reads the error from its field.
		if werr := writeJSONLine(rt.Stdout, outcome); werr != nil {
			return rt.fail(werr)
		}
		if err != nil {
			return rt.fail(err)
		}
		return nil
	}

	if err != nil {
		return rt.fail(err)
	}
	if outcome.Summary != "" {
		fmt.Fprintln(rt.Stdout, outcome.Summary)
	}
	return nil
}
