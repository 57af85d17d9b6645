package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the user-level gitloom configuration, loaded from
// ~/.config/gitloom/config.yaml. Everything has a working default; an
// absent file is a valid configuration.
type Config struct {
	Theme      string          `yaml:"theme"`
	MainBranch string          `yaml:"main_branch"`
	Agent      AgentConfig     `yaml:"agent"`
	Swarm      SwarmConfig     `yaml:"swarm"`
	Launch     LaunchConfig    `yaml:"launch"`
	Log        LogConfig       `yaml:"log"`
	AgentFiles []string        `yaml:"agent_files"`
	Provision  ProvisionConfig `yaml:"provision"`
	// ScanPaths are directories searched one level deep for
	// repositories by the projects listing and the dashboard.
	ScanPaths []string `yaml:"scan_paths"`
	// MCPServers is passed through to per-child integration configs
	// without interpretation.
	MCPServers map[string]any `yaml:"mcp_servers"`
}

// AgentConfig describes the recovery/worker assistant CLI.
type AgentConfig struct {
	Command   string   `yaml:"command"`
	ExtraArgs []string `yaml:"extra_args"`
	Model     string   `yaml:"model"`
}

// SwarmConfig carries the override scopes for per-child models.
type SwarmConfig struct {
	// Model is a blanket override applied to every child of a swarm.
	Model string `yaml:"model"`
	// RoleModels are explicit per-role overrides, the highest
	// precedence scope.
	RoleModels map[string]string `yaml:"role_models"`
}

// LaunchConfig controls how agent sessions are opened.
type LaunchConfig struct {
	Tmux          bool   `yaml:"tmux"`
	SessionPrefix string `yaml:"session_prefix"`
	// OpenCommand overrides the terminal command used to open a
	// worktree. The GITLOOM_OPEN_CMD environment variable wins over
	// this value.
	OpenCommand string `yaml:"open_command"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ProvisionConfig describes per-child environment provisioning.
type ProvisionConfig struct {
	// CopyEnvFiles copies .env* files from the parent worktree into
	// every child worktree.
	CopyEnvFiles bool `yaml:"copy_env_files"`
	// DatabaseBranchCommand is run once per child with {branch}
	// substituted. Empty disables it.
	DatabaseBranchCommand string `yaml:"database_branch_command"`
}

// BuiltinRoleModels are the built-in per-role model defaults, the
// second-lowest precedence scope.
var BuiltinRoleModels = map[string]string{
	"lead":     "opus",
	"worker":   "sonnet",
	"reviewer": "sonnet",
	"scout":    "haiku",
}

func DefaultConfig() Config {
	return Config{
		Theme:      "mocha",
		MainBranch: "main",
		Agent: AgentConfig{
			Command: "claude",
		},
		Launch: LaunchConfig{
			Tmux:          true,
			SessionPrefix: "loom",
		},
		Log: LogConfig{
			Level: "info",
		},
		Provision: ProvisionConfig{
			CopyEnvFiles: true,
		},
	}
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	if cfg.Theme == "" {
		cfg.Theme = "mocha"
	}
	if cfg.MainBranch == "" {
		cfg.MainBranch = "main"
	}
	if err := cfg.validate(); err != nil {
		return DefaultConfig(), err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (debug, info, warn, error)", c.Log.Level)
	}
	return nil
}

// LogPath returns the configured log file, or the default under the
// data directory.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(DataDir(), "gitloom.log")
}

// ConfigPath returns the user config file location, honoring
// XDG_CONFIG_HOME.
func ConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "gitloom", "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "gitloom", "config.yaml")
	}

	return filepath.Join(home, ".config", "gitloom", "config.yaml")
}

// DataDir returns the directory for logs and other machine-local
// state, honoring XDG_DATA_HOME.
func DataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "gitloom")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".local", "share", "gitloom")
	}

	return filepath.Join(home, ".local", "share", "gitloom")
}
