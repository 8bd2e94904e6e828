package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"caixa/internal/core"
	"caixa/internal/session"
)

func rec(id int, date core.Date, amount string) core.Record {
	return core.Record{
		ID:            id,
		Date:          date,
		Title:         "Compra",
		PaymentMethod: "Crédito",
		Amount:        decimal.RequireFromString(amount),
		Installments:  1,
	}
}

func TestGroups(t *testing.T) {
	oct10 := core.NewDate(2025, 10, 10)
	records := []core.Record{
		rec(0, oct10, "150.00"),
		rec(1, oct10, "150.00"),
		rec(2, oct10, "99.00"),
		rec(3, core.NewDate(2025, 11, 2), "150.00"),
	}

	groups := Groups(records, session.NewState())
	if len(groups) != 1 {
		t.Fatalf("Groups() returned %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.Key.Date != "2025-10-10" || g.Key.Amount != "150" {
		t.Errorf("unexpected key %v", g.Key)
	}
	if len(g.Members) != 2 || g.Members[0].ID != 0 || g.Members[1].ID != 1 {
		t.Errorf("members not in identity order: %+v", g.Members)
	}
}

func TestGroupsSkipsResolvedAndDisambiguated(t *testing.T) {
	oct10 := core.NewDate(2025, 10, 10)
	records := []core.Record{
		rec(0, oct10, "150.00"),
		rec(1, oct10, "150.00"),
		rec(2, oct10, "80.00"),
		rec(3, oct10, "80.00"),
	}

	state := session.NewState()
	state.Resolved[records[0].Key()] = core.DecisionKeepAll
	state.Excluded[3] = struct{}{}

	if groups := Groups(records, state); len(groups) != 0 {
		t.Errorf("Groups() = %d groups, want 0 (one resolved, one down to a single active member)", len(groups))
	}
}

func TestGroupsIgnoreNullDates(t *testing.T) {
	records := []core.Record{
		rec(0, core.Date{}, "150.00"),
		rec(1, core.Date{}, "150.00"),
	}

	if groups := Groups(records, session.NewState()); len(groups) != 0 {
		t.Errorf("null-dated records must not form a group, got %+v", groups)
	}
}

func TestGroupsDeterministicOrder(t *testing.T) {
	oct10 := core.NewDate(2025, 10, 10)
	records := []core.Record{
		rec(0, core.NewDate(2025, 11, 1), "10.00"),
		rec(1, core.NewDate(2025, 11, 1), "10.00"),
		rec(2, oct10, "500.00"),
		rec(3, oct10, "500.00"),
		rec(4, oct10, "20.00"),
		rec(5, oct10, "20.00"),
	}

	groups := Groups(records, session.NewState())
	if len(groups) != 3 {
		t.Fatalf("Groups() returned %d groups, want 3", len(groups))
	}
	wantKeys := []core.ConflictKey{
		{Date: "2025-10-10", Amount: "20"},
		{Date: "2025-10-10", Amount: "500"},
		{Date: "2025-11-01", Amount: "10"},
	}
	for i, want := range wantKeys {
		if groups[i].Key != want {
			t.Errorf("group %d key = %v, want %v", i, groups[i].Key, want)
		}
	}
}

func TestRunExcludeOne(t *testing.T) {
	oct10 := core.NewDate(2025, 10, 10)
	records := []core.Record{
		rec(0, oct10, "150.00"),
		rec(1, oct10, "150.00"),
	}

	r := New(session.NewMemoryStore())
	state, err := r.Run(context.Background(), "s1", records, DecisionFunc(
		func(context.Context, core.ConflictGroup) (core.Decision, error) {
			return core.DecisionExcludeOne, nil
		}))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, ok := state.Excluded[1]; !ok {
		t.Error("last group member (ID 1) must be excluded")
	}
	if _, ok := state.Excluded[0]; ok {
		t.Error("first group member must survive")
	}
	if got := Apply(records, state); len(got) != 1 || got[0].ID != 0 {
		t.Errorf("Apply() = %+v, want only record 0", got)
	}
}

func TestRunKeepAll(t *testing.T) {
	oct10 := core.NewDate(2025, 10, 10)
	records := []core.Record{
		rec(0, oct10, "150.00"),
		rec(1, oct10, "150.00"),
	}

	r := New(session.NewMemoryStore())
	state, err := r.Run(context.Background(), "s1", records, KeepAll{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(state.Excluded) != 0 {
		t.Errorf("keep-all must exclude nothing, got %v", state.Excluded)
	}
	if got := Apply(records, state); len(got) != 2 {
		t.Errorf("Apply() dropped records under keep-all: %+v", got)
	}
}

func TestRunIsIdempotentAcrossReruns(t *testing.T) {
	oct10 := core.NewDate(2025, 10, 10)
	records := []core.Record{
		rec(0, oct10, "150.00"),
		rec(1, oct10, "150.00"),
	}

	store := session.NewMemoryStore()
	r := New(store)

	calls := 0
	src := DecisionFunc(func(context.Context, core.ConflictGroup) (core.Decision, error) {
		calls++
		return core.DecisionExcludeOne, nil
	})

	if _, err := r.Run(context.Background(), "s1", records, src); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if _, err := r.Run(context.Background(), "s1", records, src); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("decision source called %d times, persisted decisions must not be re-asked", calls)
	}
}

func TestRunDecisionError(t *testing.T) {
	oct10 := core.NewDate(2025, 10, 10)
	records := []core.Record{
		rec(0, oct10, "150.00"),
		rec(1, oct10, "150.00"),
	}

	wantErr := errors.New("operator went home")
	r := New(session.NewMemoryStore())
	_, err := r.Run(context.Background(), "s1", records, DecisionFunc(
		func(context.Context, core.ConflictGroup) (core.Decision, error) {
			return "", wantErr
		}))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestResolve(t *testing.T) {
	oct10 := core.NewDate(2025, 10, 10)
	records := []core.Record{
		rec(0, oct10, "150.00"),
		rec(1, oct10, "150.00"),
	}
	key := records[0].Key()

	store := session.NewMemoryStore()
	r := New(store)

	if err := r.Resolve(context.Background(), "s1", records, key, core.DecisionExcludeOne); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	state, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := state.Excluded[1]; !ok {
		t.Error("Resolve() did not record the exclusion")
	}

	// Re-resolving the same key and resolving an unknown key are no-ops.
	if err := r.Resolve(context.Background(), "s1", records, key, core.DecisionKeepAll); err != nil {
		t.Errorf("re-resolving a settled key: %v", err)
	}
	if err := r.Resolve(context.Background(), "s1", records, core.ConflictKey{Date: "2030-01-01", Amount: "1"}, core.DecisionKeepAll); err != nil {
		t.Errorf("resolving an unknown key: %v", err)
	}

	if err := r.Resolve(context.Background(), "s1", records, key, core.Decision("shrug")); !errors.Is(err, core.ErrUnknownDecision) {
		t.Errorf("invalid action error = %v, want ErrUnknownDecision", err)
	}
}
