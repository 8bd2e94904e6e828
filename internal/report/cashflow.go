package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"caixa/internal/core"
)

// nearZero guards cycle totals against floating noise: cycles whose
// absolute total is at or below a cent are dropped from the statement.
var nearZero = decimal.NewFromFloat(0.01)

// Cashflow groups the credit-rail entries by billing cycle and returns
// the per-cycle statement, cycles in ascending label order (the
// invalid-date bucket sorts last), rows within a cycle by date.
func Cashflow(entries []core.Record) []core.CashflowCycle {
	byLabel := make(map[string][]core.Record)
	for _, rec := range entries {
		if !rec.IsCredit() {
			continue
		}
		label := CycleLabel(rec.Date)
		byLabel[label] = append(byLabel[label], rec)
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	cycles := make([]core.CashflowCycle, 0, len(labels))
	for _, label := range labels {
		recs := byLabel[label]
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Date.Before(recs[j].Date.Time)
		})

		total := decimal.Zero
		rows := make([]core.CashflowRow, 0, len(recs))
		for _, rec := range recs {
			total = total.Add(rec.Amount)
			rows = append(rows, core.CashflowRow{Date: rec.Date, Title: rec.Title, Amount: rec.Amount})
		}
		if total.Abs().LessThanOrEqual(nearZero) {
			continue
		}
		cycles = append(cycles, core.CashflowCycle{Label: label, Total: total, Rows: rows})
	}
	return cycles
}
