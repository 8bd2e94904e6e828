package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecordIsCredit(t *testing.T) {
	tests := []struct {
		name   string
		method string
		want   bool
	}{
		{"accented", "Crédito", true},
		{"unaccented", "Credito", true},
		{"lower case", "cartão de crédito", true},
		{"debit", "Débito", false},
		{"cash", "Dinheiro", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{PaymentMethod: tt.method}
			if got := rec.IsCredit(); got != tt.want {
				t.Errorf("IsCredit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordExpandable(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		installments int
		want         bool
	}{
		{"credit multi", "Crédito", 3, true},
		{"credit single", "Crédito", 1, false},
		{"debit multi", "Débito", 3, false},
		{"credit zero", "Crédito", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{PaymentMethod: tt.method, Installments: tt.installments}
			if got := rec.Expandable(); got != tt.want {
				t.Errorf("Expandable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateAddMonths(t *testing.T) {
	tests := []struct {
		name string
		d    Date
		n    int
		want Date
	}{
		{"plain shift", NewDate(2025, 1, 15), 1, NewDate(2025, 2, 15)},
		{"two months", NewDate(2025, 1, 15), 2, NewDate(2025, 3, 15)},
		{"year rollover", NewDate(2025, 12, 10), 1, NewDate(2026, 1, 10)},
		{"clamp to february", NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{"leap year clamp", NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{"day preserved past short month", NewDate(2025, 1, 31), 2, NewDate(2025, 3, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.AddMonths(tt.n); !got.Equal(tt.want.Time) {
				t.Errorf("AddMonths(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestRecordKey(t *testing.T) {
	amount := decimal.RequireFromString("150.00")

	dated := Record{Date: NewDate(2025, 10, 10), Amount: amount}
	if got := dated.Key(); got.Date != "2025-10-10" || got.Amount != "150" {
		t.Errorf("Key() = %+v", got)
	}

	undated := Record{Amount: amount}
	if got := undated.Key(); got.Date != "" {
		t.Errorf("Key() date for empty date = %q, want empty", got.Date)
	}

	// Same (date, amount) means same key regardless of other fields.
	a := Record{ID: 1, Date: NewDate(2025, 10, 10), Amount: amount, Title: "Compra A"}
	b := Record{ID: 2, Date: NewDate(2025, 10, 10), Amount: amount, Title: "Compra B"}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %v vs %v", a.Key(), b.Key())
	}
}

func TestDecisionIsValid(t *testing.T) {
	if !DecisionExcludeOne.IsValid() || !DecisionKeepAll.IsValid() {
		t.Error("defined decisions must be valid")
	}
	if Decision("drop-all").IsValid() {
		t.Error("unknown decision must be invalid")
	}
}
