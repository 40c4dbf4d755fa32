package session

import (
	"sync"
	"time"
)

// Member is one live connection participating in a session.
type Member interface {
	// ID uniquely identifies the connection.
	ID() string
	// Open reports whether the connection can still be written to.
	Open() bool
	// Enqueue hands a payload to the connection without blocking. It
	// reports false when the connection is closed or saturated.
	Enqueue(payload []byte) bool
}

type entry struct {
	members    map[Member]struct{}
	emptySince time.Time
}

// Registry maps a session id to its live member set. Sessions are
// created implicitly on first join; they are never removed on emptiness
// alone, only by an idle sweep.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// Join adds m to the session's member set, creating the session entry if
// it does not exist. No authorization check happens here.
func (r *Registry) Join(sessionID string, m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{members: make(map[Member]struct{})}
		r.sessions[sessionID] = e
	}
	e.members[m] = struct{}{}
	e.emptySince = time.Time{}
}

// Leave removes m from the session's member set if present; leaving a
// session m never joined is a no-op.
func (r *Registry) Leave(sessionID string, m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(e.members, m)
	if len(e.members) == 0 {
		e.emptySince = time.Now()
	}
}

// MembersExcept returns a point-in-time snapshot of the session's other
// open members. The returned slice is a copy, safe to iterate while
// joins and leaves continue concurrently.
func (r *Registry) MembersExcept(sessionID string, m Member) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]Member, 0, len(e.members))
	for other := range e.members {
		if other == m || !other.Open() {
			continue
		}
		out = append(out, other)
	}
	return out
}

// Len reports the number of members currently joined to the session.
func (r *Registry) Len(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(e.members)
}

// SweepIdle removes sessions whose member set has been empty for at
// least ttl as of now, and returns the removed session ids. Sessions
// with members are never swept.
func (r *Registry) SweepIdle(ttl time.Duration, now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var reaped []string
	for id, e := range r.sessions {
		if len(e.members) != 0 || e.emptySince.IsZero() {
			continue
		}
		if now.Sub(e.emptySince) >= ttl {
			delete(r.sessions, id)
			reaped = append(reaped, id)
		}
	}
	return reaped
}
