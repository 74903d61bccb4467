package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds live sessions by id.
type Registry struct {
	ttl     time.Duration
	factory func(id string) *Session
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry. factory builds a session for a
// fresh id; sessions idle for longer than ttl are dropped by Sweep.
func NewRegistry(ttl time.Duration, factory func(id string) *Session) *Registry {
	return &Registry{
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, if any.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Acquire returns the session for id, creating one under a new random id
// when id is empty or unknown. created reports the latter.
func (r *Registry) Acquire(id string) (s *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && id != "" {
		s.Touch()
		return s, false
	}
	id = uuid.NewString()
	s = r.factory(id)
	r.sessions[id] = s
	return s, true
}

// Sweep closes and removes the sessions idle for longer than the ttl and
// returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			s.Close()
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.Close()
		delete(r.sessions, id)
	}
}
