package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	"caixa/internal/services"
	"caixa/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := services.NewAnalysisService(session.NewMemoryStore(), nil)
	return NewServer(":0", svc)
}

// buildWorkbook produces an xlsx with the two period tabs the pipeline
// expects, including one duplicate pair on 2025-10-10.
func buildWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheets := map[string][][]any{
		"Outubro 2025": {
			{"Data", "Título", "Via", "Valor Final", "Parcelas"},
			{"10/10/2025", "Multibar", "Crédito", "150,00", "1"},
			{"10/10/2025", "Multibar", "Crédito", "150,00", "1"},
			{"05/10/2025", "Feira", "Débito", "90,00", "1"},
		},
		"Nov 2025": {
			{"Data", "Título", "Pagamento", "Valor Final", "Parcelas"},
			{"02/11/2025", "Açougue do Zé", "Crédito", "220,00", "1"},
		},
	}
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet(%s): %v", name, err)
		}
		for i, row := range rows {
			cell := fmt.Sprintf("A%d", i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow(%s, %s): %v", name, cell, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func uploadWorkbook(t *testing.T, srv *Server, workbook []byte) sessionDTO {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("workbook", "fechamento.xlsx")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(workbook); err != nil {
		t.Fatalf("write workbook part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/sessions = %d, want 201; body: %s", rec.Code, rec.Body)
	}
	var dto sessionDTO
	if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	return dto
}

func do(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := do(srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
}

func TestCreateSessionUpload(t *testing.T) {
	srv := newTestServer(t)
	dto := uploadWorkbook(t, srv, buildWorkbook(t))

	if dto.SessionID == "" {
		t.Error("response missing session_id")
	}
	if dto.Records != 4 {
		t.Errorf("records = %d, want 4", dto.Records)
	}
	if len(dto.PendingConflicts) != 1 {
		t.Fatalf("pending_conflicts = %d, want 1", len(dto.PendingConflicts))
	}
	c := dto.PendingConflicts[0]
	if c.Date != "2025-10-10" || c.Amount != "150" || len(c.Members) != 2 {
		t.Errorf("unexpected conflict payload: %+v", c)
	}
}

func TestCreateSessionWithoutFile(t *testing.T) {
	srv := newTestServer(t)
	rec := do(srv, http.MethodPost, "/api/sessions", []byte("{}"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST without multipart = %d, want 400", rec.Code)
	}
}

func TestCreateSessionMissingPeriodTabs(t *testing.T) {
	srv := newTestServer(t)

	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("workbook", "vazio.xlsx")
	part.Write(buf.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("upload without period tabs = %d, want 422; body: %s", rec.Code, rec.Body)
	}
}

func TestDecisionFlow(t *testing.T) {
	srv := newTestServer(t)
	dto := uploadWorkbook(t, srv, buildWorkbook(t))
	base := "/api/sessions/" + dto.SessionID

	// Strict report refused while the duplicate pair is undecided.
	rec := do(srv, http.MethodGet, base+"/reports/cashflow?strict=1", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("strict report with pending conflicts = %d, want 409", rec.Code)
	}

	decision, _ := json.Marshal(decisionRequest{
		Date: "2025-10-10", Amount: "150", Action: "exclude-one",
	})
	rec = do(srv, http.MethodPost, base+"/decisions", decision)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST decision = %d, want 204; body: %s", rec.Code, rec.Body)
	}

	rec = do(srv, http.MethodGet, base+"/conflicts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET conflicts = %d, want 200", rec.Code)
	}
	var conflicts struct {
		Conflicts []conflictDTO `json:"conflicts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&conflicts); err != nil {
		t.Fatalf("decode conflicts: %v", err)
	}
	if len(conflicts.Conflicts) != 0 {
		t.Errorf("conflicts still pending after decision: %+v", conflicts.Conflicts)
	}

	rec = do(srv, http.MethodGet, base+"/reports/cashflow?strict=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("strict report after decision = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	var cashflow struct {
		Cycles []cashflowCycleDTO `json:"cycles"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&cashflow); err != nil {
		t.Fatalf("decode cashflow: %v", err)
	}
	// One Multibar excluded: October cycle carries 150.00, November 220.00.
	if len(cashflow.Cycles) != 2 {
		t.Fatalf("cycles = %d, want 2: %+v", len(cashflow.Cycles), cashflow.Cycles)
	}
	if cashflow.Cycles[0].Label != "2025-10" || cashflow.Cycles[0].Total != "150.00" {
		t.Errorf("cycle 0 = %+v", cashflow.Cycles[0])
	}

	rec = do(srv, http.MethodGet, base+"/reports/abc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET abc report = %d, want 200", rec.Code)
	}
	var abc abcDTO
	if err := json.NewDecoder(rec.Body).Decode(&abc); err != nil {
		t.Fatalf("decode abc: %v", err)
	}
	if abc.GrandTotal != "370.00" {
		t.Errorf("abc grand_total = %s, want 370.00", abc.GrandTotal)
	}
}

func TestInvalidDecisionAction(t *testing.T) {
	srv := newTestServer(t)
	dto := uploadWorkbook(t, srv, buildWorkbook(t))

	decision, _ := json.Marshal(decisionRequest{
		Date: "2025-10-10", Amount: "150", Action: "delete-everything",
	})
	rec := do(srv, http.MethodPost, "/api/sessions/"+dto.SessionID+"/decisions", decision)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid action = %d, want 422", rec.Code)
	}
}

func TestUnknownSessionRoutes(t *testing.T) {
	srv := newTestServer(t)

	paths := []struct {
		method string
		path   string
		body   []byte
	}{
		{http.MethodGet, "/api/sessions/ghost/conflicts", nil},
		{http.MethodGet, "/api/sessions/ghost/reports/cashflow", nil},
		{http.MethodGet, "/api/sessions/ghost/reports/abc", nil},
		{http.MethodPost, "/api/sessions/ghost/decisions",
			[]byte(`{"date":"2025-10-10","amount":"150","action":"keep-all"}`)},
	}
	for _, tt := range paths {
		rec := do(srv, tt.method, tt.path, tt.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tt.method, tt.path, rec.Code)
		}
	}
}
