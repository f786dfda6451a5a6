package session

import (
	"sync"
	"time"

	"coinchart/internal/form"

	"github.com/google/uuid"
)

// Factory builds the orchestrator backing a new form session.
type Factory func() *form.Orchestrator

type entry struct {
	form     *form.Orchestrator
	lastSeen time.Time
}

// Store keeps one form orchestrator per browser session in memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	newForm  Factory
	now      func() time.Time
}

func NewStore(newForm Factory, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		newForm:  newForm,
		now:      time.Now,
	}
}

// Create starts a new form session and returns its id.
func (s *Store) Create() (string, *form.Orchestrator) {
	id := uuid.NewString()
	f := s.newForm()

	s.mu.Lock()
	s.sessions[id] = &entry{form: f, lastSeen: s.now()}
	s.mu.Unlock()
	return id, f
}

// Get returns the session's form and marks it as recently used.
func (s *Store) Get(id string) (*form.Orchestrator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.form, true
}

// Delete closes and forgets a session.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		e.form.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*form.Orchestrator
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.form)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, f := range expired {
		f.Close()
	}
	return len(expired)
}
