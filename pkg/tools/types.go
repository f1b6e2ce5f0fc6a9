// Package tools implements the tool registry and dispatcher of spec §4.5:
// the catalog of callable tools, JSON-Schema argument validation, the
// policy/adapter/redaction/audit pipeline a `tools/call` passes through, and
// response shaping.
package tools

import (
	"context"
	"time"

	"github.com/opscorehq/opscore/pkg/audit"
	"github.com/opscorehq/opscore/pkg/config"
	"github.com/opscorehq/opscore/pkg/policy"
	"github.com/opscorehq/opscore/pkg/session"
)

// Scope tags a descriptor may carry (spec §3).
const (
	ScopeCore     = "core"
	ScopeStandard = "standard"
	ScopeAll      = "all"
)

// Default per-tool timeouts, used when the caller omits `timeout` (spec §4.5
// step 6).
const (
	DefaultCommandTimeout  = 30 * time.Second
	DefaultLogTailTimeout  = 60 * time.Second
	DefaultMutationTimeout = 120 * time.Second
)

// ContentBlock is one block of a shaped tool result. "text" is the only
// required type; a successful call may add one "structured" block mirroring
// the tool's declared output schema (spec §3).
type ContentBlock struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Structured any    `json:"structured,omitempty"`
}

// Result is the shaped outcome of a tools/call invocation.
type Result struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// TextResult builds a successful single-text-block result.
func TextResult(text string) *Result {
	return &Result{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: false}
}

// TextAndStructuredResult builds a successful result with both a text
// summary and a structured payload.
func TextAndStructuredResult(text string, structured any) *Result {
	return &Result{
		Content: []ContentBlock{
			{Type: "text", Text: text},
			{Type: "structured", Structured: structured},
		},
		IsError: false,
	}
}

// ErrorResult builds an isError result whose first line is a one-line
// summary including the error sub-kind, and whose structured payload
// carries a stable error_kind field (spec §7).
func ErrorResult(summary string, errorKind string, structured map[string]any) *Result {
	if structured == nil {
		structured = map[string]any{}
	}
	structured["error_kind"] = errorKind
	return &Result{
		Content: []ContentBlock{
			{Type: "text", Text: summary},
			{Type: "structured", Structured: structured},
		},
		IsError: true,
	}
}

// Call bundles one tools/call invocation's resolved arguments and effective
// deadline.
type Call struct {
	Name      string
	Arguments map[string]any
	Deadline  time.Duration
}

// Handler implements one tool. It receives the already schema-validated
// arguments and the runtime context built for the active profile (config, policy, adapters)
// rather than reaching through a global singleton (spec §9).
type Handler func(ctx context.Context, call *Call, rc *RuntimeContext) (*Result, error)

// RuntimeContext is the explicit server-context value threaded through
// every handler invocation: the active profile's resolved targets, the
// policy view for that profile, the shared redactor, and the adapter
// capability set. Rebuilt atomically on every profile switch.
type RuntimeContext struct {
	ProfileName string
	Profile     config.Profile
	Config      *config.Config
	Policy      *policy.Checker
	Redactor    *policy.Redactor
	Audit       *audit.Writer
	Adapters    Adapters

	// Session is the owning session, present so profile_set can perform the
	// atomic profile/scope swap of spec §5's "profile-switch tool completes
	// ... before it returns" guarantee. context_show does not use it; it
	// reports ProfileName and Profile.
	//
	// Profile-switch effects on Policy/Redactor/Adapters are not handled
	// here: rpc.Deps.BuildRC reconstructs a fresh RuntimeContext from the
	// session's current profile name on every tools/call dispatch, so a
	// stale RuntimeContext is never reused across a profile switch.
	Session *session.Session
}

// Adapters bundles the backend capability interfaces a handler may invoke
// (spec §4.6). Concrete implementations live under pkg/adapters/*.
type Adapters struct {
	SSH        SSHAdapter
	Docker     DockerAdapter
	Kubernetes KubernetesAdapter
	Logs       LogReader
}

// Descriptor is an immutable tool registration (spec §3).
type Descriptor struct {
	Name           string
	Description    string
	InputSchema    map[string]any
	OutputSchema   map[string]any
	ScopeTag       string
	MutationFlag   bool
	PassthroughCmd string // non-empty for allowlist-checked tools; the command family (e.g. "kubectl")
	Verb           string // the fixed verb this tool maps to within PassthroughCmd
	ScanCommandArg string // non-empty names an argument holding an arbitrary shell command to dangerous-flag-scan
	Handler        Handler
}

// IsMutation reports whether the descriptor is mutation-flagged. Per spec
// §6.4, any tool whose scope_tag is "all" is mutation-flagged; a descriptor
// may also be explicitly flagged regardless of scope.
func (d Descriptor) IsMutation() bool {
	return d.MutationFlag || d.ScopeTag == ScopeAll
}
