// Package google reads workbooks hosted on Google Sheets.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"caixa/internal/core"
	"caixa/internal/ingest"
)

// Source reads every tab of one remote spreadsheet through the Sheets
// API, read-only.
type Source struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ingest.Source = (*Source)(nil)

// NewFromEnv creates a Source using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Source, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Source{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Tables implements ingest.Source. Each tab becomes one raw table; cell
// values come back as the sheet's formatted strings so the normalizer
// sees the same text a local xlsx export would carry.
func (s *Source) Tables(ctx context.Context) ([]ingest.Table, error) {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", s.spreadsheetID, err)
	}
	if len(meta.Sheets) == 0 {
		return nil, core.ErrEmptyWorkbook
	}

	tables := make([]ingest.Table, 0, len(meta.Sheets))
	for _, sheet := range meta.Sheets {
		name := sheet.Properties.Title
		resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, name).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		rows := make([][]string, 0, len(resp.Values))
		for _, raw := range resp.Values {
			row := make([]string, len(raw))
			for i, cell := range raw {
				row[i] = fmt.Sprintf("%v", cell)
			}
			rows = append(rows, row)
		}
		tables = append(tables, ingest.Table{Name: name, Rows: rows})
	}

	slog.DebugContext(ctx, "Fetched spreadsheet tables",
		"spreadsheet_id", s.spreadsheetID,
		"tables", len(tables))

	return tables, nil
}
