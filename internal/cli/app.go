// pattern: Functional Core
package cli

import (
	"fmt"
	"io"
	"os"
)

// Command is one CLI command: its name, help texts, and handler.
// Handlers report their own errors and call os.Exit through the
// runtime, so Execute ignores the returned error.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Run     func(args []string) error
}

// Group is a set of related commands dispatched under a shared prefix.
type Group struct {
	Name     string
	Summary  string
	Commands map[string]*Command

	order []string
}

// App is the top-level dispatcher over groups and ungrouped commands.
// Registration order is display order in help output.
type App struct {
	groups   map[string]*Group
	commands map[string]*Command

	groupOrder []string
	cmdOrder   []string
	version    string
}

// NewApp creates an empty application with the given version.
func NewApp(version string) *App {
	return &App{
		groups:   make(map[string]*Group),
		commands: make(map[string]*Command),
		version:  version,
	}
}

// AddGroup creates and registers a new command group.
func (a *App) AddGroup(name, summary string) *Group {
	g := &Group{
		Name:     name,
		Summary:  summary,
		Commands: make(map[string]*Command),
	}
	a.groups[name] = g
	a.groupOrder = append(a.groupOrder, name)
	return g
}

// AddCommand registers an ungrouped (top-level) command.
func (a *App) AddCommand(cmd *Command) {
	a.commands[cmd.Name] = cmd
	a.cmdOrder = append(a.cmdOrder, cmd.Name)
}

// AddCommand registers a command in the group.
func (g *Group) AddCommand(cmd *Command) {
	g.Commands[cmd.Name] = cmd
	g.order = append(g.order, cmd.Name)
}

// wantsHelp reports whether any argument is a help flag.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

// Execute dispatches the CLI arguments to the matching command.
// Returns true when the dashboard should be launched instead.
func (a *App) Execute(args []string) bool {
	if len(args) == 0 {
		return true
	}

	cmdName := args[0]
	if cmdName == "dashboard" {
		return true
	}

	if cmd, ok := a.commands[cmdName]; ok {
		_ = cmd.Run(args[1:])
		return false
	}

	if group, ok := a.groups[cmdName]; ok {
		if len(args) < 2 || args[1] == "help" || wantsHelp(args[1:2]) {
			group.PrintHelp(os.Stderr)
			return false
		}

		if cmd, ok := group.Commands[args[1]]; ok {
			if wantsHelp(args[2:]) {
				fmt.Fprintf(os.Stderr, "%s\n", cmd.Usage)
				return false
			}
			_ = cmd.Run(args[2:])
			return false
		}

		// Unknown subcommand.
		group.PrintHelp(os.Stderr)
		os.Exit(1)
	}

	// Unknown command.
	a.PrintHelp(os.Stderr)
	os.Exit(1)
	return false
}

// PrintHelp prints the top-level help text. The trailing Options
// header is completed by pflag's PrintDefaults in main.
func (a *App) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: gitloom [options] [command]\n\n")

	fmt.Fprintf(w, "Commands:\n")
	for _, name := range a.cmdOrder {
		cmd := a.commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "dashboard", "Launch the interactive dashboard (also the default)")

	if len(a.groupOrder) > 0 {
		fmt.Fprintf(w, "\nCommand Groups:\n")
		for _, name := range a.groupOrder {
			group := a.groups[name]
			fmt.Fprintf(w, "  %-10s %s\n", group.Name, group.Summary)
		}
	}

	fmt.Fprintf(w, "\nUse \"gitloom <group> help\" for group details.\n\n")
	fmt.Fprintf(w, "Options:\n")
}

// PrintHelp prints help for a specific group.
func (g *Group) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: gitloom %s <command>\n\n", g.Name)
	fmt.Fprintf(w, "Commands:\n")
	for _, name := range g.order {
		cmd := g.Commands[name]
		fmt.Fprintf(w, "  %-12s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "\nUse \"gitloom %s <command> --help\" for command details.\n", g.Name)
}
