// pattern: Imperative Shell

package launch

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"gitloom/internal/logging"
)

// Opener launches a terminal window at a worktree path. The command
// is resolved from GITLOOM_OPEN_CMD, then the configured override,
// then a platform default.
type Opener struct {
	configured string
	goos       string
	exec       Executor
	log        *logging.ScopedLogger
}

func NewOpener(configured string, exec Executor, log *logging.ScopedLogger) *Opener {
	if exec == nil {
		exec = hostExec
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Opener{configured: configured, goos: runtime.GOOS, exec: exec, log: log}
}

// Open launches the resolved command for dir. Templates may place the
// path with a {dir} placeholder; without one the path is appended.
func (o *Opener) Open(ctx context.Context, dir string) error {
	name, args, workDir := o.command(dir)
	if name == "" {
		return fmt.Errorf("no terminal command available for %s", o.goos)
	}

	o.log.Debug("opening terminal", "command", name, "dir", dir)
	if _, err := o.exec(ctx, workDir, name, args...); err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}
	return nil
}

func (o *Opener) command(dir string) (name string, args []string, workDir string) {
	template := os.Getenv("GITLOOM_OPEN_CMD")
	if template == "" {
		template = o.configured
	}
	if template != "" {
		fields := strings.Fields(template)
		if len(fields) == 0 {
			return "", nil, ""
		}
		substituted := false
		for i, f := range fields {
			if strings.Contains(f, "{dir}") {
				fields[i] = strings.ReplaceAll(f, "{dir}", dir)
				substituted = true
			}
		}
		if !substituted {
			fields = append(fields, dir)
		}
		return fields[0], fields[1:], ""
	}

	switch o.goos {
	case "darwin":
		return "open", []string{"-a", "Terminal", dir}, ""
	default:
		// x-terminal-emulator has no portable working-directory flag;
		// start it from the target directory instead.
		return "x-terminal-emulator", nil, dir
	}
}
