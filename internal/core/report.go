package core

import "github.com/shopspring/decimal"

// InvalidCycleLabel buckets entries whose date could not be parsed.
const InvalidCycleLabel = "Data Inválida"

type (
	// CashflowRow is one ledger line inside a billing cycle.
	CashflowRow struct {
		Date   Date
		Title  string
		Amount decimal.Decimal
	}

	// CashflowCycle groups credit entries falling due on one statement.
	CashflowCycle struct {
		Label string
		Total decimal.Decimal
		Rows  []CashflowRow
	}

	// ABCRow is one vendor category in the Pareto analysis, in descending
	// absolute-total order.
	ABCRow struct {
		Class      string
		Category   string
		Total      decimal.Decimal
		Percent    decimal.Decimal
		Cumulative decimal.Decimal
	}

	// ABCReport is the full Pareto classification plus the analyzed grand
	// total (sum of absolute category totals).
	ABCReport struct {
		Rows       []ABCRow
		GrandTotal decimal.Decimal
	}
)
