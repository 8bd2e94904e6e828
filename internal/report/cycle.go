// Package report assigns ledger entries to billing cycles and produces
// the cash-flow statement and the ABC cost-concentration analysis.
package report

import (
	"fmt"

	"caixa/internal/core"
)

// CutoverDay is the statement cutover: purchases on or after the 23rd
// fall due on the next month's statement.
const CutoverDay = 23

// CycleLabel is a pure function from date to billing-cycle token
// ("2025-11", or the invalid-date sentinel).
func CycleLabel(d core.Date) string {
	if d.IsEmpty() {
		return core.InvalidCycleLabel
	}
	year, month := d.Year(), d.Month()
	if d.Day() >= CutoverDay {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}
