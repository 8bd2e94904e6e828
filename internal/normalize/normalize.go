// Package normalize merges the raw period tables into one canonical
// record set with stable identities.
package normalize

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"caixa/internal/core"
	"caixa/internal/ingest"
)

// Period-table discovery substrings. The workbook ships one tab per
// month, named in Portuguese ("Outubro", "Nov 2025", ...).
const (
	FirstPeriodSubstr  = "out"
	SecondPeriodSubstr = "nov"
)

// Source-data artifact: a batch of rows was keyed in with year 2011 and
// must be read as 2025.
const (
	artifactYear  = 2011
	correctedYear = 2025
)

// FindPeriodTables locates the two expected monthly tables by
// case-insensitive substring match on their names. Absence of either is
// a hard ingestion error.
func FindPeriodTables(tables []ingest.Table) (first, second ingest.Table, err error) {
	find := func(substr string) (ingest.Table, error) {
		for _, t := range tables {
			if strings.Contains(strings.ToLower(t.Name), substr) {
				return t, nil
			}
		}
		return ingest.Table{}, fmt.Errorf("%w: no table name contains %q", core.ErrTableNotFound, substr)
	}
	if first, err = find(FirstPeriodSubstr); err != nil {
		return ingest.Table{}, ingest.Table{}, err
	}
	if second, err = find(SecondPeriodSubstr); err != nil {
		return ingest.Table{}, ingest.Table{}, err
	}
	return first, second, nil
}

// Run normalizes both period tables and merges them, first table's rows
// before the second's, reassigning identities 0..N-1 over the merged
// sequence. The per-table passes are independent and run concurrently.
func Run(ctx context.Context, first, second ingest.Table) ([]core.Record, error) {
	var firstRecs, secondRecs []core.Record

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		firstRecs, err = normalizeTable(ctx, first)
		return err
	})
	g.Go(func() error {
		var err error
		secondRecs, err = normalizeTable(ctx, second)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]core.Record, 0, len(firstRecs)+len(secondRecs))
	merged = append(merged, firstRecs...)
	merged = append(merged, secondRecs...)
	for i := range merged {
		merged[i].ID = i
	}
	return merged, nil
}

// columnLayout maps canonical fields to column indexes within one table,
// -1 when the table does not provide the field.
type columnLayout struct {
	date         int
	title        int
	payment      int
	amount       int
	installments int
}

func resolveColumns(header []string) columnLayout {
	layout := columnLayout{date: -1, title: -1, payment: -1, amount: -1, installments: -1}
	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		lower := strings.ToLower(trimmed)
		switch {
		case trimmed == "Data":
			layout.date = i
		case trimmed == "Título" || trimmed == "Titulo":
			layout.title = i
		// "Pagamento" is the legacy header for the payment column.
		case trimmed == "Via" || trimmed == "Pagamento":
			layout.payment = i
		case trimmed == "Valor Final":
			layout.amount = i
		case strings.Contains(lower, "parcela"):
			layout.installments = i
		}
	}
	return layout
}

func normalizeTable(ctx context.Context, t ingest.Table) ([]core.Record, error) {
	if len(t.Rows) == 0 {
		return nil, nil
	}
	layout := resolveColumns(t.Rows[0])

	records := make([]core.Record, 0, len(t.Rows)-1)
	for _, row := range t.Rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlankRow(row) {
			continue
		}
		records = append(records, core.Record{
			Date:          parseDate(safeGet(row, layout.date)),
			Title:         strings.TrimSpace(safeGet(row, layout.title)),
			PaymentMethod: strings.TrimSpace(safeGet(row, layout.payment)),
			Amount:        parseAmount(safeGet(row, layout.amount)),
			Installments:  parseInstallments(safeGet(row, layout.installments)),
		})
	}
	return records, nil
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
}

// parseDate coerces a cell into a calendar date, zero on failure. Excel
// serial numbers (days since 1899-12-30) are accepted alongside the
// textual layouts the sheets actually use.
func parseDate(s string) core.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return repairYear(core.Date{Time: t.UTC().Truncate(24 * time.Hour)})
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
		return repairYear(core.Date{Time: epoch.AddDate(0, 0, int(serial))})
	}
	return core.Date{}
}

func repairYear(d core.Date) core.Date {
	if d.Year() == artifactYear {
		return core.NewDate(correctedYear, d.Month(), d.Day())
	}
	return d
}

// parseAmount reads a signed currency cell. Brazilian formatting
// ("R$ 1.234,56") and plain decimals are both accepted; anything else
// coerces to zero rather than failing the row.
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		// Comma is the decimal separator; dots are thousands.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseInstallments coerces the installment count to an integer,
// defaulting invalid or missing values to 1. Fractional counts truncate
// the way a numeric cast would.
func parseInstallments(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return int(f)
	}
	return 1
}
