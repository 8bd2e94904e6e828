package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"caixa/internal/core"
)

var (
	hundred = decimal.NewFromInt(100)
	classA  = decimal.NewFromInt(80)
	classB  = decimal.NewFromInt(95)
)

// ABC produces the Pareto classification of credit-rail spend grouped
// by normalized vendor category. Categories sort by descending absolute
// total; cumulative percent is classified A (≤80), B (≤95), C (rest).
// With no credit spend the report is empty, not an error.
func ABC(entries []core.Record, rules []VendorRule) core.ABCReport {
	byCategory := make(map[string]decimal.Decimal)
	for _, rec := range entries {
		if !rec.IsCredit() {
			continue
		}
		category := NormalizeVendor(rec.Title, rules)
		byCategory[category] = byCategory[category].Add(rec.Amount)
	}

	type categoryTotal struct {
		category string
		total    decimal.Decimal
		abs      decimal.Decimal
	}
	totals := make([]categoryTotal, 0, len(byCategory))
	grand := decimal.Zero
	for category, total := range byCategory {
		abs := total.Abs()
		totals = append(totals, categoryTotal{category: category, total: total, abs: abs})
		grand = grand.Add(abs)
	}
	if grand.IsZero() {
		return core.ABCReport{GrandTotal: decimal.Zero}
	}

	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].abs.Equal(totals[j].abs) {
			return totals[i].abs.GreaterThan(totals[j].abs)
		}
		return totals[i].category < totals[j].category
	})

	rows := make([]core.ABCRow, 0, len(totals))
	cumulative := decimal.Zero
	for _, ct := range totals {
		percent := ct.abs.Mul(hundred).Div(grand)
		cumulative = cumulative.Add(percent)
		rows = append(rows, core.ABCRow{
			Class:      classify(cumulative),
			Category:   ct.category,
			Total:      ct.total,
			Percent:    percent,
			Cumulative: cumulative,
		})
	}
	return core.ABCReport{Rows: rows, GrandTotal: grand}
}

func classify(cumulative decimal.Decimal) string {
	switch {
	case cumulative.LessThanOrEqual(classA):
		return "A"
	case cumulative.LessThanOrEqual(classB):
		return "B"
	default:
		return "C"
	}
}
