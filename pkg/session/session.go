// Package session implements the per-connection state machine of spec §4.3:
// Pre-Init -> Initializing -> Ready -> Closed, plus the active profile and
// scope filter a Ready session carries.
package session

import (
	"sync"
	"time"

	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

// State is one of the four session lifecycle states.
type State string

const (
	PreInit      State = "pre_init"
	Initializing State = "initializing"
	Ready        State = "ready"
	Closed       State = "closed"
)

// ClientInfo is the client-reported identity carried in `initialize` params.
type ClientInfo struct {
	Name    string
	Version string
}

// Session is one client connection's state, from the first `initialize` to
// transport close. Session state is single-writer (spec §5): only the
// dispatch loop for this session mutates it, guarded here by a mutex so
// concurrent tool-call goroutines can still read a consistent snapshot.
type Session struct {
	mu sync.RWMutex

	id                       string
	state                    State
	clientInfo               ClientInfo
	negotiatedProtocolVer    string
	activeProfileName        string
	scopeFilter              map[string]struct{}
	conversationCounter      int64
	createdAt                time.Time
}

// New creates a session in Pre-Init.
func New(id string) *Session {
	return &Session{
		id:    id,
		state: PreInit,
		createdAt: time.Now().UTC(),
	}
}

// ID returns the session's identifier (opaque; stdio uses a constant ID).
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Initialize handles the `initialize` request: Pre-Init -> Initializing.
// A second call on an already-initializing or ready session is the
// "second initialize" case of spec §4.2 and returns a protocol-invalid
// error.
func (s *Session) Initialize(client ClientInfo, protocolVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PreInit {
		return opserrors.NewProtocolInvalidError("session already initialized", nil)
	}
	s.clientInfo = client
	s.negotiatedProtocolVer = protocolVersion
	s.state = Initializing
	return nil
}

// MarkInitialized handles the `initialized` notification: Initializing ->
// Ready, installing the session's initial active profile and scope filter.
func (s *Session) MarkInitialized(profileName string, scope map[string]struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Initializing {
		return opserrors.NewProtocolInvalidError("initialized received outside Initializing state", nil)
	}
	s.activeProfileName = profileName
	s.scopeFilter = scope
	s.state = Ready
	return nil
}

// RequireReady returns a protocol-invalid error unless the session is Ready,
// the gate every tool method other than initialize/initialized passes
// through (spec §4.3: "Tool methods received outside Ready fail with -32600").
func (s *Session) RequireReady() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Ready {
		return opserrors.NewProtocolInvalidError("session is not ready", nil)
	}
	return nil
}

// SwitchProfile atomically swaps the active profile and scope filter. No
// in-flight call observes a half-switched state: the whole update happens
// under a single write lock (spec §3 "Lifecycles", §5 ordering guarantees).
func (s *Session) SwitchProfile(profileName string, scope map[string]struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return opserrors.NewProtocolInvalidError("profile switch requires a ready session", nil)
	}
	s.activeProfileName = profileName
	s.scopeFilter = scope
	return nil
}

// Close transitions the session to Closed. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Closed
}

// Snapshot is a consistent, immutable read of session state taken under a
// single lock acquisition, used by the dispatcher at call entry.
type Snapshot struct {
	State              State
	ActiveProfileName  string
	ScopeFilter        map[string]struct{}
	ConversationID     int64
	NegotiatedProtocol string
}

// Snap takes a consistent snapshot and increments the conversation counter,
// used only for logging correlation (spec §3).
func (s *Session) Snap() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationCounter++
	return Snapshot{
		State:              s.state,
		ActiveProfileName:  s.activeProfileName,
		ScopeFilter:        s.scopeFilter,
		ConversationID:     s.conversationCounter,
		NegotiatedProtocol: s.negotiatedProtocolVer,
	}
}

// InScope reports whether name is in the session's current scope filter.
func (s *Session) InScope(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.scopeFilter[name]
	return ok
}
