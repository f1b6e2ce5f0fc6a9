package rpc

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/opscorehq/opscore/pkg/session"
	"github.com/opscorehq/opscore/pkg/tools"
)

// ServerInfo identifies this server in the initialize response.
type ServerInfo struct {
	Name    string
	Version string
}

// RuntimeContextBuilder constructs the tool dispatch runtime context for a
// named profile: the policy checker, redactor, and adapter set bound to
// that profile's targets. It is rebuilt on every profile switch rather than
// cached as a process-wide singleton (spec §9).
type RuntimeContextBuilder func(profileName string) (*tools.RuntimeContext, error)

// Deps bundles everything the method handlers close over: the session
// (serve wires one ambient session shared by the stdio and HTTP
// transports), the shared config/registry/dispatcher, and the
// runtime-context builder.
type Deps struct {
	Config     *config.Config
	Registry   *tools.Registry
	Dispatcher *tools.Dispatcher
	Session    *session.Session
	ServerInfo ServerInfo
	BuildRC    RuntimeContextBuilder

	// DefaultProfile and InitialScope are resolved once at startup (from
	// config/flags/environment) and installed by handleInitialized —
	// spec's `initialized` notification carries no params of its own.
	DefaultProfile string
	InitialScope   map[string]struct{}
}

// Handlers builds the fixed method dispatch table of spec §4.2/§4.3:
// `initialize`, `initialized`, `ping`, `tools/list`, `tools/call`.
func Handlers(deps Deps) map[string]Handler {
	return map[string]Handler{
		"initialize":   deps.handleInitialize,
		"initialized":  deps.handleInitialized,
		"ping":         deps.handlePing,
		"tools/list":   deps.handleToolsList,
		"tools/call":   deps.handleToolsCall,
	}
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      map[string]any `json:"serverInfo"`
}

func (d Deps) handleInitialize(ctx context.Context, raw json.RawMessage) (any, error) {
	var params initializeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, opserrors.NewInvalidParamsError("malformed initialize params", err)
		}
	}

	if err := d.Session.Initialize(session.ClientInfo{
		Name:    params.ClientInfo.Name,
		Version: params.ClientInfo.Version,
	}, params.ProtocolVersion); err != nil {
		return nil, err
	}

	return initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{"listChanged": false}},
		ServerInfo:      map[string]any{"name": d.ServerInfo.Name, "version": d.ServerInfo.Version},
	}, nil
}

// handleInitialized installs the scope filter and active profile the
// server was started with — from the environment/flags, per spec's state
// table ("install scope filter from environment/profile"), not from the
// (empty) `initialized` params the worked protocol example shows.
func (d Deps) handleInitialized(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := d.Session.MarkInitialized(d.DefaultProfile, d.InitialScope); err != nil {
		return nil, err
	}
	return map[string]any{}, nil
}

func (d Deps) handlePing(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := d.Session.RequireReady(); err != nil {
		return nil, err
	}
	return map[string]any{"pong": true}, nil
}

type toolListResult struct {
	Tools []toolListEntry `json:"tools"`
}

type toolListEntry struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func (d Deps) handleToolsList(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := d.Session.RequireReady(); err != nil {
		return nil, err
	}
	snap := d.Session.Snap()
	descs := d.Registry.Filter(snap.ScopeFilter)

	entries := make([]toolListEntry, 0, len(descs))
	for _, desc := range descs {
		entries = append(entries, toolListEntry{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: desc.InputSchema,
		})
	}
	return toolListResult{Tools: entries}, nil
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (d Deps) handleToolsCall(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := d.Session.RequireReady(); err != nil {
		return nil, err
	}

	var params toolsCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, opserrors.NewInvalidParamsError("malformed tools/call params", err)
	}
	if params.Name == "" {
		return nil, opserrors.NewInvalidParamsError("tools/call requires a tool name", nil)
	}

	snap := d.Session.Snap()
	rc, err := d.BuildRC(snap.ActiveProfileName)
	if err != nil {
		return nil, err
	}
	rc.Session = d.Session

	requestID := snap.ActiveProfileName + ":" + strconv.FormatInt(snap.ConversationID, 10)
	return d.Dispatcher.Call(ctx, params.Name, params.Arguments, snap.ScopeFilter, rc, requestID)
}
