// Package memory holds a fixed workbook in memory, mainly for tests.
package memory

import (
	"context"
	"sync"

	"caixa/internal/core"
	"caixa/internal/ingest"
)

type Source struct {
	mu     sync.Mutex
	tables []ingest.Table
}

var _ ingest.Source = (*Source)(nil)

func New(tables ...ingest.Table) *Source {
	return &Source{tables: tables}
}

// Tables returns a copy of the seeded tables.
func (s *Source) Tables(_ context.Context) ([]ingest.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tables) == 0 {
		return nil, core.ErrEmptyWorkbook
	}
	out := make([]ingest.Table, len(s.tables))
	copy(out, s.tables)
	return out, nil
}
