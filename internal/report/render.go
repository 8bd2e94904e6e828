package report

import (
	"fmt"
	"strings"

	"caixa/internal/core"
)

// RenderCashflow formats the statement for a terminal, one block per
// billing cycle.
func RenderCashflow(cycles []core.CashflowCycle) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 72) + "\n")
	b.WriteString("FLUXO DE CAIXA - CARTÃO DE CRÉDITO\n")
	b.WriteString(strings.Repeat("=", 72) + "\n")
	for _, cycle := range cycles {
		fmt.Fprintf(&b, "\nFATURA VENCIMENTO: %s\n", cycle.Label)
		fmt.Fprintf(&b, "TOTAL A PAGAR: R$ %s\n", cycle.Total.StringFixed(2))
		b.WriteString(strings.Repeat("-", 72) + "\n")
		for _, row := range cycle.Rows {
			date := "??/??/????"
			if !row.Date.IsEmpty() {
				date = row.Date.Format("02/01/2006")
			}
			fmt.Fprintf(&b, "%s  %-44s R$ %s\n", date, row.Title, row.Amount.StringFixed(2))
		}
	}
	return b.String()
}

// RenderABC formats the Pareto table for a terminal.
func RenderABC(r core.ABCReport) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("#", 72) + "\n")
	b.WriteString("ANÁLISE ABC POR FORNECEDOR\n")
	b.WriteString(strings.Repeat("#", 72) + "\n")
	fmt.Fprintf(&b, "\nGASTO TOTAL ANALISADO: R$ %s\n\n", r.GrandTotal.StringFixed(2))
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "%s  %-36s R$ %12s  %5s%%\n",
			row.Class, row.Category, row.Total.StringFixed(2), row.Percent.StringFixed(1))
	}
	return b.String()
}
