// pattern: Functional Core

package swarm

// ModelConfig carries every scope a child's model can be set at.
type ModelConfig struct {
	// RoleOverrides maps a role name to an explicit per-role override.
	// Overrides naming unknown roles simply never match.
	RoleOverrides map[string]string
	// SwarmModel is a blanket override for the whole swarm.
	SwarmModel string
	// Defaults maps role names to their built-in default models.
	Defaults map[string]string
	// ItemDefault is the item's own model outside any swarm scope.
	ItemDefault string
}

// ResolveModel applies the fixed precedence order, highest first:
// per-role override, swarm blanket override, built-in role default,
// item default. The order is total and identical regardless of which
// scopes are present.
func ResolveModel(role string, cfg ModelConfig) string {
	if m := cfg.RoleOverrides[role]; m != "" {
		return m
	}
	if cfg.SwarmModel != "" {
		return cfg.SwarmModel
	}
	if m := cfg.Defaults[role]; m != "" {
		return m
	}
	return cfg.ItemDefault
}
