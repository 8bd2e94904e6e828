package amqp

import (
	"encoding/json"
	"time"

	"caixa/internal/core"
)

// ConflictMember is one active record of a pending conflict group, as
// shown to the remote operator.
type ConflictMember struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	PaymentMethod string `json:"payment_method"`
}

// ConflictPendingMessage announces a conflict group awaiting a decision.
type ConflictPendingMessage struct {
	SessionID string           `json:"session_id"`
	Date      string           `json:"date"`
	Amount    string           `json:"amount"`
	Members   []ConflictMember `json:"members"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewConflictPendingMessage(sessionID string, group core.ConflictGroup) *ConflictPendingMessage {
	members := make([]ConflictMember, 0, len(group.Members))
	for _, rec := range group.Members {
		members = append(members, ConflictMember{
			ID:            rec.ID,
			Title:         rec.Title,
			PaymentMethod: rec.PaymentMethod,
		})
	}
	return &ConflictPendingMessage{
		SessionID: sessionID,
		Date:      group.Key.Date,
		Amount:    group.Key.Amount,
		Members:   members,
		Timestamp: time.Now(),
	}
}

func (m *ConflictPendingMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DecisionMessage carries one operator decision back to the reconciler.
type DecisionMessage struct {
	SessionID string    `json:"session_id"`
	Date      string    `json:"date"`
	Amount    string    `json:"amount"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the conflict key the decision addresses.
func (m *DecisionMessage) Key() core.ConflictKey {
	return core.ConflictKey{Date: m.Date, Amount: m.Amount}
}

func DecisionMessageFromJSON(data []byte) (*DecisionMessage, error) {
	var msg DecisionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReportReadyMessage signals that a session's reports can be fetched.
type ReportReadyMessage struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportReadyMessage(sessionID string) *ReportReadyMessage {
	return &ReportReadyMessage{SessionID: sessionID, Timestamp: time.Now()}
}

func (m *ReportReadyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
