// Package session persists per-session reconciliation state: the
// Exclusion Set and the Resolved-Conflict-Keys set. Both sets grow
// monotonically; decisions are never undone.
package session

import (
	"context"

	"caixa/internal/core"
)

// State is the reconciliation state of one session. Excluded holds
// record identities removed by operator decision; Resolved maps each
// decided conflict key to the action taken.
type State struct {
	Excluded map[int]struct{}
	Resolved map[core.ConflictKey]core.Decision
}

// NewState returns an empty, usable State.
func NewState() State {
	return State{
		Excluded: make(map[int]struct{}),
		Resolved: make(map[core.ConflictKey]core.Decision),
	}
}

// Store loads and appends session reconciliation state. Implementations:
// memory (default) and sqlite (survives process restarts, so a re-run
// over the same dataset never re-presents a resolved group).
type Store interface {
	// Load returns the accumulated state for a session. An unknown
	// session yields empty state, not an error.
	Load(ctx context.Context, sessionID string) (State, error)

	// MarkResolved records a decision on a conflict group, excluding
	// excludedIDs (empty for keep-all). Marking an already-resolved key
	// again is a no-op.
	MarkResolved(ctx context.Context, sessionID string, key core.ConflictKey, action core.Decision, excludedIDs []int) error
}
