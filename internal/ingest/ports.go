// Package ingest defines the workbook input boundary and its adapters.
package ingest

import "context"

// Table is one raw tab of the uploaded workbook. Rows hold display
// strings exactly as the source renders them; the first row is the
// header.
type Table struct {
	Name string
	Rows [][]string
}

// Source yields every table of one workbook. Adapters exist for local
// xlsx files, Google Sheets and an in-memory seed used by tests.
type Source interface {
	Tables(ctx context.Context) ([]Table, error)
}
