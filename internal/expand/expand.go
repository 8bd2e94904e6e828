// Package expand flattens multi-installment credit purchases into
// per-month single-installment entries.
package expand

import (
	"fmt"

	"github.com/shopspring/decimal"

	"caixa/internal/core"
)

// Run expands every eligible record (credit rail, more than one
// installment) into its per-month entries and passes everything else
// through unchanged. Source order is preserved; the entries derived from
// one record are emitted consecutively in installment order.
//
// The share is the plain quotient amount/n. Fractional-cent drift
// against the original total is a known property of the source data's
// process and is deliberately not redistributed.
func Run(records []core.Record) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, rec := range records {
		if !rec.Expandable() {
			out = append(out, rec)
			continue
		}
		out = append(out, installments(rec)...)
	}
	return out
}

func installments(rec core.Record) []core.Record {
	n := rec.Installments
	share := rec.Amount.Div(decimal.NewFromInt(int64(n)))

	entries := make([]core.Record, 0, n)
	for i := 0; i < n; i++ {
		entry := rec
		// A date that failed to parse stays unparsed; shifting the zero
		// date would mint real-looking cycle dates in year 1.
		if !rec.Date.IsEmpty() {
			entry.Date = rec.Date.AddMonths(i)
		}
		entry.Amount = share
		entry.Title = fmt.Sprintf("%s (%d/%d)", rec.Title, i+1, n)
		entry.Installments = 1
		entries = append(entries, entry)
	}
	return entries
}
