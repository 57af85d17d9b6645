// pattern: Imperative Shell

// Package mcp writes per-worktree integration config for the
// assistant CLI. The server map comes straight from user settings and
// is passed through opaquely; only "{branch}" placeholders inside
// string values are rewritten per child.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitloom/internal/logging"
)

const configName = "mcp.json"

// Generator writes one config file per child worktree.
type Generator struct {
	servers map[string]any
	log     *logging.ScopedLogger
}

func NewGenerator(servers map[string]any, log *logging.ScopedLogger) *Generator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Generator{servers: servers, log: log}
}

// Enabled reports whether any servers are configured. Callers skip
// generation entirely when false.
func (g *Generator) Enabled() bool {
	return len(g.servers) > 0
}

// Generate writes <worktreePath>/.gitloom/mcp.json and returns the
// written path. The signature matches what the swarm coordinator
// expects from a config generator.
func (g *Generator) Generate(ctx context.Context, worktreePath, branch string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(worktreePath, ".gitloom")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	doc := map[string]any{
		"mcpServers": substitute(g.servers, branch),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}

	path := filepath.Join(dir, configName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	g.log.Debug("wrote integration config", "path", path, "branch", branch)
	return path, nil
}

// substitute rewrites "{branch}" in every string of the settings
// tree, leaving structure and non-string values untouched.
func substitute(v any, branch string) any {
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(t, "{branch}", branch)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = substitute(val, branch)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = substitute(val, branch)
		}
		return out
	default:
		return v
	}
}
