// Package config loads the declarative profile file that describes the
// fleet opscore manages: named profiles, the host/cluster/docker-endpoint
// entries they reference, and audit settings. Redaction rules are not read
// from the file: DefaultRedactionRuleSet supplies the built-in set.
package config

// Wildcard is the allowlist token that admits every verb in a command
// family.
const Wildcard = "*"

// DefaultConfigPath is used when CONFIG_PATH is unset.
const DefaultConfigPath = ".config/ops-core/config.yaml"

// Config is the fully resolved profile file.
type Config struct {
	Profiles        map[string]Profile            `mapstructure:"profiles"`
	Hosts           map[string]HostEntry           `mapstructure:"hosts"`
	Clusters        map[string]ClusterEntry        `mapstructure:"clusters"`
	DockerEndpoints map[string]DockerEndpointEntry `mapstructure:"docker_endpoints"`
	Audit           AuditSettings                  `mapstructure:"audit"`
}

// Profile is a named configuration bundle: default targets plus a policy
// view (allowlist, dangerous-flag admission).
type Profile struct {
	Name                  string              `mapstructure:"name"`
	DefaultHost           string              `mapstructure:"default_host"`
	DefaultKubeContext    string              `mapstructure:"default_kube_context"`
	DefaultNamespace      string              `mapstructure:"default_namespace"`
	DefaultDockerEndpoint string              `mapstructure:"default_docker_endpoint"`
	ComposeFiles          []string            `mapstructure:"compose_files"`
	Allowlist             map[string][]string `mapstructure:"allowlist"`
	DangerousFlags        []string            `mapstructure:"dangerous_flags"`
	DangerousAllowed      bool                `mapstructure:"dangerous_allowed"`
}

// VerbAllowed reports whether verb is admitted for the given command family,
// honoring the wildcard token (spec §4.4).
func (p Profile) VerbAllowed(family, verb string) bool {
	verbs, ok := p.Allowlist[family]
	if !ok {
		return false
	}
	for _, v := range verbs {
		if v == Wildcard || v == verb {
			return true
		}
	}
	return false
}

// HostEntry resolves an SSH-reachable or local host by name.
type HostEntry struct {
	Name          string `mapstructure:"name"`
	Address       string `mapstructure:"address"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	CredentialRef string `mapstructure:"credential_ref"`
}

// ClusterEntry resolves a Kubernetes cluster by name.
type ClusterEntry struct {
	Name           string `mapstructure:"name"`
	KubeconfigPath string `mapstructure:"kubeconfig_path"`
	Context        string `mapstructure:"context"`
}

// DockerEndpointEntry resolves a Docker daemon socket by name.
type DockerEndpointEntry struct {
	Name      string `mapstructure:"name"`
	SocketURL string `mapstructure:"socket_url"`
}

// AuditSettings configures the append-only audit logger.
type AuditSettings struct {
	Path string `mapstructure:"path"`
}

// RedactionRuleSet is an ordered list of case-insensitive value patterns
// plus the key-name substrings that trigger whole-value masking (spec §3,
// §4.4). It is separate from Config because redaction rules are process-wide
// rather than per-profile.
type RedactionRuleSet struct {
	ValuePatterns      []string `mapstructure:"value_patterns"`
	SensitiveKeyParts  []string `mapstructure:"sensitive_key_parts"`
}

// DefaultRedactionRuleSet matches spec §7's worked example (API_TOKEN) and
// the common sensitive key names named in §4.4.
func DefaultRedactionRuleSet() RedactionRuleSet {
	return RedactionRuleSet{
		ValuePatterns: []string{
			`(?i)(token)\s*[:=]\s*(\S+)`,
			`(?i)(password)\s*[:=]\s*(\S+)`,
			`(?i)(secret)\s*[:=]\s*(\S+)`,
			`(?i)(api[_-]?key)\s*[:=]\s*(\S+)`,
		},
		SensitiveKeyParts: []string{"token", "password", "secret", "key"},
	}
}
