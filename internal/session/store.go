package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Store keeps sessions in memory. Sessions are never persisted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]State)}
}

// Create stores st under a fresh id.
func (s *Store) Create(st State) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = st
	s.mu.Unlock()
	return id
}

func (s *Store) Get(id string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	return st, nil
}

// Update applies fn to the stored state atomically. When fn fails the
// stored state is left untouched.
func (s *Store) Update(id string, fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	next, err := fn(st)
	if err != nil {
		return st, err
	}
	s.sessions[id] = next
	return next, nil
}

// Apply is Update for commands that cannot fail.
func (s *Store) Apply(id string, fn func(State) State) (State, error) {
	return s.Update(id, func(st State) (State, error) { return fn(st), nil })
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// IsCurrent reports whether the session still sits at generation gen. A
// render started at an older generation has been superseded.
func (s *Store) IsCurrent(id string, gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	return ok && st.Gen == gen
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
