// Package xlsx reads workbooks in Office Open XML format.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"caixa/internal/core"
	"caixa/internal/ingest"
)

// Source reads every sheet of an xlsx workbook.
type Source struct {
	open func() (*excelize.File, error)
}

// NewFromReader builds a Source over an already-uploaded workbook body.
// The body is consumed on the first Tables call.
func NewFromReader(r io.Reader) *Source {
	return &Source{open: func() (*excelize.File, error) {
		return excelize.OpenReader(r)
	}}
}

// NewFromFile builds a Source over a workbook on disk.
func NewFromFile(path string) *Source {
	return &Source{open: func() (*excelize.File, error) {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("stat workbook: %w", err)
		}
		return excelize.OpenFile(path)
	}}
}

// Tables implements ingest.Source.
func (s *Source) Tables(ctx context.Context) ([]ingest.Table, error) {
	f, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, core.ErrEmptyWorkbook
	}

	tables := make([]ingest.Table, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		tables = append(tables, ingest.Table{Name: name, Rows: rows})
	}
	return tables, nil
}
