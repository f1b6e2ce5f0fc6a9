package session

import (
	"sync"
	"time"
)

// entry pairs a session with the last time it was touched, for idle
// expiry — mirrors the teacher's session.Manager bookkeeping (map + mutex +
// last-touched timestamp), generalized from proxy sessions to opscore client
// sessions.
type entry struct {
	session    *Session
	lastTouch  time.Time
}

// Manager tracks Sessions by ID with idle expiry. Neither transport uses it:
// serve wires one ambient session shared by stdio and HTTP. Access is guarded by a mutex; the
// registry itself is safe for concurrent use across request goroutines.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
}

// NewManager creates a Manager that expires idle sessions after ttl. A
// non-positive ttl disables expiry.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		ttl:     ttl,
	}
}

// Add registers a new session, replacing any existing session under the
// same ID.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID()] = &entry{session: s, lastTouch: time.Now()}
}

// Get returns the session for id, bumping its last-touched time, and
// whether it was found.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	e.lastTouch = time.Now()
	return e.session, true
}

// Delete removes a session from the registry, e.g. on transport close.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

// CleanupExpired closes and removes every session idle longer than the
// manager's ttl. Returns the number of sessions reaped.
func (m *Manager) CleanupExpired() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.ttl)
	reaped := 0
	for id, e := range m.entries {
		if e.lastTouch.Before(cutoff) {
			e.session.Close()
			delete(m.entries, id)
			reaped++
		}
	}
	return reaped
}

// Len reports the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
