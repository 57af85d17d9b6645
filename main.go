// pattern: Imperative Shell
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"gitloom/internal/cli"
	"gitloom/internal/config"
	"gitloom/internal/git"
	"gitloom/internal/instance"
	"gitloom/internal/logging"
	"gitloom/internal/loom"
	"gitloom/internal/tui"
	"gitloom/internal/worktree"
)

var version = "dev"

func main() {
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that --help after a subcommand is handled by the subcommand.
	flag.CommandLine.SetInterspersed(false)

	configPath := flag.StringP("config", "c", "", "config file (default: ~/.config/gitloom/config.yaml)")
	agentHelp := flag.Bool("agent-help", false, "print the agent orchestration guide")

	// Override flag.Usage before Parse so --help shows the command list.
	flag.Usage = func() {
		app := cli.BuildApp(version, &cli.Runtime{Config: config.DefaultConfig()})
		app.PrintHelp(os.Stderr)
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default config: %v\n", err)
	}

	logs, err := logging.NewManager(logging.Config{
		FilePath: cfg.LogPath(),
		Level:    cfg.Log.Level,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		logs = nil
	}
	defer func() {
		if logs != nil {
			_ = logs.Close()
		}
	}()

	rt := &cli.Runtime{Config: cfg, Logs: logs}
	app := cli.BuildApp(version, rt)

	if *agentHelp {
		app.PrintAgentHelp(os.Stdout)
		return
	}

	if app.Execute(flag.Args()) {
		runDashboard(cfg, logs)
	}
}

// loadConfig loads the configuration from the given path or the
// default location.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// runDashboard resolves the enclosing repository and launches the
// read-only loom dashboard over its store.
func runDashboard(cfg config.Config, logs *logging.Manager) {
	ctx := context.Background()
	registry := worktree.NewRegistry(git.ExecRunner, cfg.MainBranch, scoped(logs, "worktree"))

	wd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}
	wc, err := registry.ResolveContext(ctx, wd)
	if err != nil {
		fatal(err)
	}
	home, ok := registry.MainWorktree(wc.Population)
	if !ok {
		fatal(fmt.Errorf("repository at %s has no main worktree", wc.Root))
	}

	// One dashboard per repository. The records themselves are safe
	// under concurrent readers; the lock keeps log tailing and the
	// store watcher single-homed.
	fl, err := instance.Lock(loom.StateDir(home.Path))
	if err != nil {
		fatal(err)
	}
	defer instance.Unlock(fl)

	if logs != nil {
		logs.For("dashboard").Info("dashboard starting", "repo", home.Path)
	}

	store := loom.NewStore(home.Path, scoped(logs, "store"))
	model := tui.NewModel(cfg, home.Path, store, logs)

	// Tail the shared log file so the footer also shows entries from
	// CLI invocations running in other processes. Falls back to the
	// in-process channel when the tail cannot start.
	tailCtx, cancelTail := context.WithCancel(ctx)
	defer cancelTail()
	sink := logging.NewChannelSink(1000)
	if tail, err := logging.NewTail(cfg.LogPath(), sink); err == nil {
		model.SetLogSource(sink.Entries())
		go func() { _ = tail.Start(tailCtx) }()
	} else if logs != nil {
		logs.For("dashboard").Warn("log tail unavailable", "error", err)
	}

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fatal(err)
	}
}

func scoped(logs *logging.Manager, name string) *logging.ScopedLogger {
	if logs == nil {
		return logging.NopLogger()
	}
	return logs.For(name)
}

// fatal prints the error the same way CLI commands do, including the
// remediation suggestion and exit code 2 for context errors.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	var s worktree.Suggester
	if errors.As(err, &s) {
		fmt.Fprintln(os.Stderr, s.Suggestion())
		os.Exit(2)
	}
	os.Exit(1)
}
