// pattern: Imperative Shell

// Package swarm provisions groups of child worktrees under a parent,
// one per work item, with per-item success reporting. One child's
// failure never aborts its siblings.
package swarm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"gitloom/internal/logging"
	"gitloom/internal/loom"
	"gitloom/internal/worktree"
)

// Item is one child work item to provision.
type Item struct {
	ID        string
	Title     string
	Body      string
	Role      string
	DependsOn []string
}

// ChildResult reports the outcome for one item. The JSON field names
// are a cross-process contract consumed by scripting layers.
type ChildResult struct {
	IssueID      string `json:"issueId"`
	WorktreePath string `json:"worktreePath"`
	Branch       string `json:"branch"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// Parent identifies the worktree the swarm hangs under.
type Parent struct {
	Branch       string
	WorktreePath string
	Type         string
	Identifier   string
}

// Store is the metadata persistence the coordinator needs.
type Store interface {
	Write(md *loom.Metadata) error
	ReadBranch(branch string) (*loom.Metadata, error)
}

// ConfigGenerator writes a per-child integration config file and
// returns its path. Nil means generation is unavailable and is skipped.
type ConfigGenerator func(ctx context.Context, worktreePath, branch string) (string, error)

// EnvProvisioner prepares a fresh child worktree with the uncommitted
// environment it needs (env files, database branches). Nil disables
// provisioning.
type EnvProvisioner func(ctx context.Context, parentDir, childDir, branch string) error

// Coordinator creates and tracks child worktrees for a swarm.
type Coordinator struct {
	registry  *worktree.Registry
	store     Store
	genCfg    ConfigGenerator
	provision EnvProvisioner
	log       *logging.ScopedLogger
}

// NewCoordinator builds a coordinator. genCfg and provision may be nil.
func NewCoordinator(registry *worktree.Registry, store Store, genCfg ConfigGenerator, provision EnvProvisioner, log *logging.ScopedLogger) *Coordinator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Coordinator{registry: registry, store: store, genCfg: genCfg, provision: provision, log: log}
}

var refCleanRe = regexp.MustCompile(`[^a-zA-Z0-9._/-]+`)

// ChildBranch derives the deterministic branch name for a work item
// identifier.
func ChildBranch(id string) string {
	cleaned := refCleanRe.ReplaceAllString(id, "-")
	cleaned = strings.Trim(cleaned, "-./")
	if cleaned == "" {
		cleaned = "item"
	}
	return "loom/" + cleaned
}

// CreateChildren provisions one worktree per item, in caller order,
// and returns one result per item regardless of individual failures.
// For each item: create the worktree off the parent's branch, record
// its metadata, then best-effort generate its integration config. A
// metadata failure rolls the worktree back; a config failure is logged
// and skipped.
func (c *Coordinator) CreateChildren(ctx context.Context, parent Parent, items []Item) []ChildResult {
	results := make([]ChildResult, 0, len(items))
	for _, item := range items {
		results = append(results, c.createChild(ctx, parent, item))
	}
	c.recordChildren(parent, items, results)
	return results
}

func (c *Coordinator) createChild(ctx context.Context, parent Parent, item Item) ChildResult {
	branch := ChildBranch(item.ID)
	result := ChildResult{IssueID: item.ID, Branch: branch}

	path, err := c.registry.Create(ctx, parent.WorktreePath, worktree.CreateSpec{
		Branch:       branch,
		CreateBranch: true,
		BaseBranch:   parent.Branch,
	})
	if err != nil {
		result.Error = err.Error()
		c.log.Warn("child worktree creation failed", "item", item.ID, "error", err)
		return result
	}
	result.WorktreePath = path

	md := &loom.Metadata{
		State:        loom.StatePending,
		BranchName:   branch,
		WorktreePath: path,
		IssueType:    parent.Type,
		IssueKey:     item.ID,
		Title:        item.Title,
		Body:         item.Body,
		Role:         item.Role,
		SessionID:    uuid.NewString(),
		ParentLoom: &loom.ParentRef{
			Type:         parent.Type,
			Identifier:   parent.Identifier,
			BranchName:   parent.Branch,
			WorktreePath: parent.WorktreePath,
		},
	}
	if err := c.store.Write(md); err != nil {
		// A created-but-unrecorded worktree is invisible to the rest
		// of the system; take it back down.
		if rmErr := c.registry.Remove(ctx, parent.WorktreePath, path); rmErr != nil {
			c.log.Error("rollback of unrecorded worktree failed", "path", path, "error", rmErr)
		}
		if delErr := c.registry.DeleteBranch(ctx, parent.WorktreePath, branch, true); delErr != nil {
			c.log.Warn("rollback branch delete failed", "branch", branch, "error", delErr)
		}
		result.WorktreePath = ""
		result.Error = fmt.Sprintf("recording child metadata: %v", err)
		return result
	}

	if c.genCfg != nil {
		cfgPath, err := c.genCfg(ctx, path, branch)
		if err != nil {
			// The worktree and its record stand on their own; a
			// missing integration config is a degraded child, not a
			// failed one.
			c.log.Warn("config generation failed", "item", item.ID, "error", err)
		} else {
			md.MCPConfigPath = cfgPath
			if err := c.store.Write(md); err != nil {
				c.log.Warn("recording config path failed", "item", item.ID, "error", err)
			}
		}
	}

	if c.provision != nil {
		if err := c.provision(ctx, parent.WorktreePath, path, branch); err != nil {
			c.log.Warn("environment provisioning failed", "item", item.ID, "error", err)
		}
	}

	result.Success = true
	c.log.Info("child worktree created", "item", item.ID, "branch", branch, "path", path)
	return result
}

// recordChildren updates the parent's own loom record, when one
// exists, with the ordered child identifiers and the declared
// dependency map. The coordinator stores dependencies; it never
// schedules against them.
func (c *Coordinator) recordChildren(parent Parent, items []Item, results []ChildResult) {
	parentMD, err := c.store.ReadBranch(parent.Branch)
	if err != nil {
		c.log.Debug("parent has no loom record; skipping child registration", "branch", parent.Branch)
		return
	}

	succeeded := make(map[string]bool, len(results))
	for _, r := range results {
		succeeded[r.IssueID] = r.Success
	}

	parentMD.ChildIssueNumbers = nil
	for _, item := range items {
		if !succeeded[item.ID] {
			continue
		}
		parentMD.ChildIssueNumbers = append(parentMD.ChildIssueNumbers, item.ID)
		if len(item.DependsOn) > 0 {
			if parentMD.DependencyMap == nil {
				parentMD.DependencyMap = make(map[string][]string)
			}
			parentMD.DependencyMap[item.ID] = item.DependsOn
		}
	}
	if err := c.store.Write(parentMD); err != nil {
		c.log.Warn("updating parent loom record failed", "branch", parent.Branch, "error", err)
	}
}
