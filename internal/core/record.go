package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	Date struct {
		time.Time
	}

	// Record is one normalized cash-register transaction. ID is assigned
	// once during normalization and never recomputed; every later view
	// (exclusion, expansion, reporting) refers to records through it.
	Record struct {
		ID            int
		Date          Date
		Title         string
		PaymentMethod string
		Amount        decimal.Decimal
		Installments  int
	}
)

var (
	ErrTableNotFound   = errors.New("expected table not found in workbook")
	ErrEmptyWorkbook   = errors.New("workbook contains no usable tables")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownDecision = errors.New("unknown decision action")
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether the date could not be parsed from the source.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// AddMonths shifts the date by n calendar months, preserving the
// day-of-month and clamping to the last day of shorter target months
// (Jan 31 + 1 month = Feb 28/29, never Mar 2).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), time.Month(d.Month()+n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// creditMarkers match the credit-card rail in the payment column. The
// source data spells it "Crédito" but sheets edited by hand drop the
// accent often enough to matter.
var creditMarkers = []string{"crédito", "credito"}

// IsCredit reports whether the record was paid on the credit-card rail.
func (r Record) IsCredit() bool {
	method := strings.ToLower(r.PaymentMethod)
	for _, marker := range creditMarkers {
		if strings.Contains(method, marker) {
			return true
		}
	}
	return false
}

// Expandable reports whether the record must be split into per-month
// installment entries.
func (r Record) Expandable() bool {
	return r.IsCredit() && r.Installments > 1
}
