package amqp

import (
	"testing"

	"github.com/shopspring/decimal"

	"caixa/internal/core"
)

func TestNewConflictPendingMessage(t *testing.T) {
	group := core.ConflictGroup{
		Key: core.ConflictKey{Date: "2025-10-10", Amount: "150"},
		Members: []core.Record{
			{ID: 0, Title: "Multibar", PaymentMethod: "Crédito", Amount: decimal.NewFromInt(150)},
			{ID: 1, Title: "Multibar", PaymentMethod: "Crédito", Amount: decimal.NewFromInt(150)},
		},
	}

	msg := NewConflictPendingMessage("s1", group)
	if msg.SessionID != "s1" || msg.Date != "2025-10-10" || msg.Amount != "150" {
		t.Errorf("unexpected message header: %+v", msg)
	}
	if len(msg.Members) != 2 || msg.Members[1].ID != 1 {
		t.Errorf("members not carried over: %+v", msg.Members)
	}
	if _, err := msg.ToJSON(); err != nil {
		t.Errorf("ToJSON() error = %v", err)
	}
}

func TestDecisionMessageFromJSON(t *testing.T) {
	payload := []byte(`{"session_id":"s1","date":"2025-10-10","amount":"150","action":"exclude-one"}`)

	msg, err := DecisionMessageFromJSON(payload)
	if err != nil {
		t.Fatalf("DecisionMessageFromJSON() error = %v", err)
	}
	if msg.SessionID != "s1" || msg.Action != "exclude-one" {
		t.Errorf("unexpected decision: %+v", msg)
	}
	if got := msg.Key(); got != (core.ConflictKey{Date: "2025-10-10", Amount: "150"}) {
		t.Errorf("Key() = %v", got)
	}

	if _, err := DecisionMessageFromJSON([]byte("not json")); err == nil {
		t.Error("malformed payload must error")
	}
}
