package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

// Environment variable names from spec §6.5.
const (
	EnvConfigPath  = "CONFIG_PATH"
	EnvToolsScope  = "TOOLS_SCOPE"
	EnvAuditLog    = "AUDIT_LOG_PATH"
)

// ResolvedPath returns the config file path: CONFIG_PATH if set, otherwise
// "<user-home>/.config/ops-core/config.yaml".
func ResolvedPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, DefaultConfigPath)
}

// Load reads and unmarshals the profile file at path (or ResolvedPath() if
// path is empty) using viper, the way the teacher composes its run config
// from a file plus environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ResolvedPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, opserrors.NewInvalidArgumentError("failed to read config file "+path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, opserrors.NewInvalidArgumentError("failed to parse config file "+path, err)
	}

	if cfg.Audit.Path == "" {
		cfg.Audit.Path = DefaultAuditLogPath()
	}
	if override := os.Getenv(EnvAuditLog); override != "" {
		cfg.Audit.Path = override
	}

	for name, p := range cfg.Profiles {
		if p.Name == "" {
			p.Name = name
			cfg.Profiles[name] = p
		}
	}

	return &cfg, nil
}

// DefaultAuditLogPath mirrors ResolvedPath's default-location convention for
// the audit trail when no AUDIT_LOG_PATH override and no profile-file value
// are present.
func DefaultAuditLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "ops-core", "audit.log")
}

// Scope is a resolved tool-visibility filter: either a named tier
// (core/standard/all) or an explicit set of tool names.
type Scope struct {
	Tier    string   // "core", "standard", "all", or "" when Explicit is set
	Explicit []string
}

// ResolveScope parses TOOLS_SCOPE's value: one of core|standard|all, or a
// comma-separated explicit tool-name list (spec §6.5). An empty string
// defaults to "core".
func ResolveScope(raw string) (Scope, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Scope{Tier: "core"}, nil
	}
	switch raw {
	case "core", "standard", "all":
		return Scope{Tier: raw}, nil
	}

	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		names = append(names, p)
	}
	if len(names) == 0 {
		return Scope{}, opserrors.NewInvalidArgumentError("TOOLS_SCOPE explicit list resolved empty", nil)
	}
	return Scope{Explicit: names}, nil
}

// ScopeFromEnv reads TOOLS_SCOPE from the environment.
func ScopeFromEnv() (Scope, error) {
	return ResolveScope(os.Getenv(EnvToolsScope))
}
