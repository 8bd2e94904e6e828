package session

import (
	"context"
	"sync"

	"caixa/internal/core"
)

// MemoryStore keeps reconciliation state for the life of the process.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]State
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return NewState(), nil
	}
	// Copy so callers cannot mutate store state behind the lock.
	out := NewState()
	for id := range state.Excluded {
		out.Excluded[id] = struct{}{}
	}
	for key, action := range state.Resolved {
		out.Resolved[key] = action
	}
	return out, nil
}

func (s *MemoryStore) MarkResolved(_ context.Context, sessionID string, key core.ConflictKey, action core.Decision, excludedIDs []int) error {
	if !action.IsValid() {
		return core.ErrUnknownDecision
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		state = NewState()
		s.sessions[sessionID] = state
	}
	if _, done := state.Resolved[key]; done {
		return nil
	}
	state.Resolved[key] = action
	for _, id := range excludedIDs {
		state.Excluded[id] = struct{}{}
	}
	return nil
}
