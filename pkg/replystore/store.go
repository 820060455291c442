package replystore

import "sync"

// Store owns a State and serializes every Dispatch. Readers go through View
// or Snapshot so they never observe a half-applied action.
type Store struct {
	mu     sync.Mutex
	state  *State
	closed bool
}

func NewStore() *Store {
	return &Store{state: NewState()}
}

// Dispatch runs action to completion. It reports false, and does nothing,
// once the store is closed.
func (s *Store) Dispatch(action Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.state = Reduce(s.state, action)
	return true
}

// Close makes every later Dispatch a no-op. Results of requests still in
// flight are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// View calls fn with the live state under the store lock. fn must not keep
// references to the state or call back into the store.
func (s *Store) View(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
