package sync

import (
	gosync "sync"

	"github.com/nhle/notification-sync/internal/model"
)

// Session tracks the identity the engine is scoped to. Each time the
// identity is replaced or cleared the generation advances, and any
// response captured under an older generation is discarded.
type Session struct {
	mu         gosync.RWMutex
	identity   model.Identity
	transport  Transport
	generation uint64
}

// NewSession returns a session with no identity.
func NewSession() *Session {
	return &Session{}
}

// Snapshot returns the current identity, its transport and generation.
func (s *Session) Snapshot() (model.Identity, Transport, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.transport, s.generation
}

// Identity returns the current identity.
func (s *Session) Identity() model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// IsCurrent reports whether gen is still the live generation.
func (s *Session) IsCurrent(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation == gen
}

// begin installs identity. For the same user only the transport is
// swapped (token refresh) and begin reports false. Otherwise the
// generation advances, onChange runs under the session lock, and begin
// reports true.
func (s *Session) begin(identity model.Identity, transport Transport, onChange func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.identity.IsZero() && s.identity.Same(identity) {
		s.identity = identity
		s.transport = transport
		return false
	}

	s.identity = identity
	s.transport = transport
	s.generation++
	if onChange != nil {
		onChange()
	}
	return true
}

// end clears the identity, advances the generation and runs onEnd under
// the session lock. It reports whether an identity was active.
func (s *Session) end(onEnd func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := !s.identity.IsZero()
	s.identity = model.Identity{}
	s.transport = nil
	s.generation++
	if onEnd != nil {
		onEnd()
	}
	return wasActive
}

// apply runs fn under the session lock if gen is still current, so a
// response can never land after the identity changed.
func (s *Session) apply(gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return false
	}
	fn()
	return true
}
