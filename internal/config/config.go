// Package config defines the daemon's YAML configuration schema and the
// env-var overlay applied on top of it, in the shape of the teacher's
// internal/config package (Default() constructor + applyEnvOverrides()),
// adapted from JSON5 to YAML per the wire spec.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier is the capability level a workspace is granted, totally ordered
// read < write < exec.
type Tier string

const (
	TierRead  Tier = "read"
	TierWrite Tier = "write"
	TierExec  Tier = "exec"
)

var tierRank = map[Tier]int{
	TierRead:  0,
	TierWrite: 1,
	TierExec:  2,
}

// Valid reports whether t is one of the three recognised tiers.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// AtLeast reports whether t meets or exceeds the required tier.
func (t Tier) AtLeast(required Tier) bool {
	return tierRank[t] >= tierRank[required]
}

// Workspace is a directory tree the daemon may touch, plus the tier and
// deny list constraining that access.
type Workspace struct {
	Name         string   `yaml:"name"`
	Path         string   `yaml:"path"`
	Tier         Tier     `yaml:"tier"`
	DenyPatterns []string `yaml:"denyPatterns,omitempty"`
	AllowVcs     bool     `yaml:"allowVcs,omitempty"`

	// Root is the absolute, cleaned form of Path, computed at load time.
	Root string `yaml:"-"`
}

// ServerTransport selects the session transport the daemon exposes.
type ServerTransport string

const (
	TransportStdio ServerTransport = "stdio"
	TransportHTTP  ServerTransport = "http"
)

// ServerConfig configures the loopback listener.
type ServerConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	Transport ServerTransport `yaml:"transport"`
}

// CommandsConfig holds the user-supplied regex allow/deny lists layered
// on top of the built-in command policy.
type CommandsConfig struct {
	Allow []string `yaml:"allow,omitempty"`
	Deny  []string `yaml:"deny,omitempty"`
}

// ApprovalsConfig configures the gated-operation approval policy.
type ApprovalsConfig struct {
	RequireWriteApproval bool     `yaml:"requireWriteApproval"`
	RequireExecApproval  bool     `yaml:"requireExecApproval"`
	AutoApprovePatterns  []string `yaml:"autoApprovePatterns,omitempty"`
	ApprovalTimeoutMs    int      `yaml:"approvalTimeoutMs,omitempty"`
}

// LogLevel is one of debug/info/warn/error, matching slog's levels.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      LogLevel `yaml:"level"`
	JSONLogs   bool     `yaml:"jsonLogs"`
	Timestamps bool     `yaml:"timestamps"`
	LogDir     string   `yaml:"logDir,omitempty"`
}

// Config is the root configuration for the daemon.
type Config struct {
	Version             int             `yaml:"version"`
	Workspaces          []Workspace     `yaml:"workspaces"`
	DefaultWorkspace    string          `yaml:"defaultWorkspace,omitempty"`
	Server              ServerConfig    `yaml:"server"`
	Commands            CommandsConfig  `yaml:"commands"`
	Approvals           ApprovalsConfig `yaml:"approvals"`
	Logging             LoggingConfig   `yaml:"logging"`
	GlobalDenyPatterns  []string        `yaml:"globalDenyPatterns,omitempty"`

	// Token is never read from the YAML file — only from the token file
	// on disk or the GOCLAW_AGENTD_TOKEN env var. It is never marshalled.
	Token string `yaml:"-"`
}

// Default returns a Config with sensible defaults, matching the shape of
// the teacher's Default() constructor.
func Default() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      3847,
			Transport: TransportHTTP,
		},
		Approvals: ApprovalsConfig{
			RequireWriteApproval: true,
			RequireExecApproval:  true,
			ApprovalTimeoutMs:    300_000,
		},
		Logging: LoggingConfig{
			Level:      LogInfo,
			Timestamps: true,
		},
	}
}

// Load reads config from a YAML file, overlays env vars, and resolves
// workspace roots to absolute canonical paths.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.resolveWorkspaces(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveWorkspaces computes the absolute, cleaned Root for every
// workspace and validates the tier field.
func (c *Config) resolveWorkspaces() error {
	for i := range c.Workspaces {
		w := &c.Workspaces[i]
		if w.Name == "" {
			return fmt.Errorf("workspace at index %d missing name", i)
		}
		if !w.Tier.Valid() {
			return fmt.Errorf("workspace %q has invalid tier %q", w.Name, w.Tier)
		}
		abs, err := filepath.Abs(ExpandHome(w.Path))
		if err != nil {
			return fmt.Errorf("workspace %q: %w", w.Name, err)
		}
		w.Root = filepath.Clean(abs)

		// Fold the process-wide deny list into every workspace's own
		// list once, at load time, so path-guard callers only ever need
		// to consult a single per-workspace DenyPatterns slice.
		if len(c.GlobalDenyPatterns) > 0 {
			w.DenyPatterns = append(append([]string{}, c.GlobalDenyPatterns...), w.DenyPatterns...)
		}
	}
	return nil
}

// FindWorkspace returns the named workspace, or the default workspace
// when name is empty, or (nil, false) if neither resolves.
func (c *Config) FindWorkspace(name string) (*Workspace, bool) {
	if name == "" {
		name = c.DefaultWorkspace
	}
	for i := range c.Workspaces {
		if c.Workspaces[i].Name == name {
			return &c.Workspaces[i], true
		}
	}
	return nil, false
}

// applyEnvOverrides overlays env vars onto the config, env taking
// precedence over file values — matching the teacher's applyEnvOverrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GOCLAW_AGENTD_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("GOCLAW_AGENTD_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("GOCLAW_AGENTD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("GOCLAW_AGENTD_LOG_LEVEL"); v != "" {
		c.Logging.Level = LogLevel(v)
	}
}

// ExpandHome expands a leading "~" to the user's home directory, matching
// the teacher's config.ExpandHome helper.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// ConfigDir returns the well-known configuration directory for the
// daemon, creating it if necessary.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, "agentd")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
