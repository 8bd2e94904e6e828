// Package reconcile finds duplicate-suspect transaction groups and
// resolves each one exactly once through an injected decision source.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"caixa/internal/core"
	"caixa/internal/session"
)

// DecisionSource supplies the operator's resolution for one pending
// conflict group. Interactive adapters block until a decision arrives;
// batch adapters answer immediately.
type DecisionSource interface {
	Decide(ctx context.Context, group core.ConflictGroup) (core.Decision, error)
}

// DecisionFunc adapts a function to a DecisionSource.
type DecisionFunc func(ctx context.Context, group core.ConflictGroup) (core.Decision, error)

func (f DecisionFunc) Decide(ctx context.Context, group core.ConflictGroup) (core.Decision, error) {
	return f(ctx, group)
}

// KeepAll is the non-interactive policy: with no decision channel
// available, every ambiguous group keeps all its records.
type KeepAll struct{}

func (KeepAll) Decide(context.Context, core.ConflictGroup) (core.Decision, error) {
	return core.DecisionKeepAll, nil
}

// Reconciler resolves conflict groups against persisted session state.
type Reconciler struct {
	store session.Store
}

func New(store session.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Groups returns the conflict groups still needing a decision: groups of
// two or more records sharing (date, amount) whose key is unresolved and
// which still hold at least two active members. Records without a
// parseable date never form a group. Members list only active
// records, in identity order; groups come back sorted by date then
// amount so presentation order is deterministic.
func Groups(records []core.Record, state session.State) []core.ConflictGroup {
	byKey := make(map[core.ConflictKey][]core.Record)
	for _, rec := range records {
		key := rec.Key()
		byKey[key] = append(byKey[key], rec)
	}

	var groups []core.ConflictGroup
	for key, members := range byKey {
		// Null-dated records share the empty date key but are never
		// duplicate candidates; they stay in the ledger untouched.
		if key.Date == "" {
			continue
		}
		if len(members) < 2 {
			continue
		}
		if _, done := state.Resolved[key]; done {
			continue
		}
		active := make([]core.Record, 0, len(members))
		for _, rec := range members {
			if _, excluded := state.Excluded[rec.ID]; !excluded {
				active = append(active, rec)
			}
		}
		if len(active) < 2 {
			// An earlier exclusion already disambiguated this group.
			continue
		}
		groups = append(groups, core.ConflictGroup{Key: key, Members: active})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Key.Date != groups[j].Key.Date {
			return groups[i].Key.Date < groups[j].Key.Date
		}
		return groups[i].Members[0].Amount.LessThan(groups[j].Members[0].Amount)
	})
	return groups
}

// Run drives reconciliation to completion for one session. The group
// scan restarts from scratch after every decision because an exclusion
// can deactivate other groups. Returns the final session state.
func (r *Reconciler) Run(ctx context.Context, sessionID string, records []core.Record, src DecisionSource) (session.State, error) {
	if src == nil {
		src = KeepAll{}
	}
	for {
		state, err := r.store.Load(ctx, sessionID)
		if err != nil {
			return session.State{}, fmt.Errorf("load session state: %w", err)
		}
		groups := Groups(records, state)
		if len(groups) == 0 {
			return state, nil
		}

		group := groups[0]
		action, err := src.Decide(ctx, group)
		if err != nil {
			return session.State{}, fmt.Errorf("decide conflict %s: %w", group.Key.String(), err)
		}
		if err := r.resolve(ctx, sessionID, group, action); err != nil {
			return session.State{}, err
		}
	}
}

// Resolve applies one decision to the group identified by key, for
// callers that receive decisions out of band (HTTP, AMQP). Resolving an
// already-resolved or no-longer-active group is a no-op.
func (r *Reconciler) Resolve(ctx context.Context, sessionID string, records []core.Record, key core.ConflictKey, action core.Decision) error {
	if !action.IsValid() {
		return core.ErrUnknownDecision
	}
	state, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	for _, group := range Groups(records, state) {
		if group.Key == key {
			return r.resolve(ctx, sessionID, group, action)
		}
	}
	// Unknown, resolved, or deactivated key: decision-protocol misuse is
	// not an error.
	slog.DebugContext(ctx, "Ignoring decision for inactive conflict group",
		"session_id", sessionID, "conflict_key", key.String())
	return nil
}

func (r *Reconciler) resolve(ctx context.Context, sessionID string, group core.ConflictGroup, action core.Decision) error {
	var excluded []int
	if action == core.DecisionExcludeOne {
		// The last active record in identity order is the one removed.
		excluded = []int{group.Members[len(group.Members)-1].ID}
	}
	if err := r.store.MarkResolved(ctx, sessionID, group.Key, action, excluded); err != nil {
		return fmt.Errorf("mark conflict resolved: %w", err)
	}
	slog.InfoContext(ctx, "Conflict group resolved",
		"session_id", sessionID,
		"conflict_key", group.Key.String(),
		"action", string(action),
		"members", len(group.Members))
	return nil
}

// Apply returns the records minus the session's exclusions, preserving
// order and identities.
func Apply(records []core.Record, state session.State) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, rec := range records {
		if _, excluded := state.Excluded[rec.ID]; excluded {
			continue
		}
		out = append(out, rec)
	}
	return out
}
