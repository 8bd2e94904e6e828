package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"caixa/internal/core"
	"caixa/internal/ingest/xlsx"
	"caixa/internal/services"
)

// maxUploadBytes bounds workbook uploads; the monthly closing sheets
// are well under a megabyte.
const maxUploadBytes = 16 << 20

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart upload with a 'workbook' file")
		return
	}
	file, _, err := r.FormFile("workbook")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'workbook' file")
		return
	}
	defer file.Close()

	sess, pending, err := s.svc.CreateSession(r.Context(), xlsx.NewFromReader(file))
	if err != nil {
		if errors.Is(err, core.ErrTableNotFound) || errors.Is(err, core.ErrEmptyWorkbook) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process workbook")
		return
	}

	writeJSON(w, http.StatusCreated, sessionDTO{
		SessionID:        sess.ID,
		Records:          len(sess.Records),
		PendingConflicts: toConflictDTOs(pending),
	})
}

func (s *Server) handleListConflicts(w http.ResponseWriter, r *http.Request) {
	pending, err := s.svc.PendingConflicts(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": toConflictDTOs(pending)})
}

func (s *Server) handlePostDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid decision body")
		return
	}
	action := core.Decision(req.Action)
	if !action.IsValid() {
		writeError(w, http.StatusUnprocessableEntity, "action must be 'exclude-one' or 'keep-all'")
		return
	}

	key := core.ConflictKey{Date: req.Date, Amount: req.Amount}
	if err := s.svc.Decide(r.Context(), r.PathValue("id"), key, action); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCashflowReport(w http.ResponseWriter, r *http.Request) {
	reports, ok := s.buildReports(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cycles": toCashflowDTO(reports.Cashflow)})
}

func (s *Server) handleABCReport(w http.ResponseWriter, r *http.Request) {
	reports, ok := s.buildReports(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toABCDTO(reports.ABC))
}

// buildReports computes a session's reports. With ?strict=1 the request
// is refused while conflicts are still pending; otherwise unresolved
// groups default to keep-all.
func (s *Server) buildReports(w http.ResponseWriter, r *http.Request) (*services.Reports, bool) {
	sessionID := r.PathValue("id")

	if r.URL.Query().Get("strict") == "1" {
		pending, err := s.svc.PendingConflicts(r.Context(), sessionID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return nil, false
		}
		if len(pending) > 0 {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":     "unresolved conflicts pending",
				"conflicts": toConflictDTOs(pending),
			})
			return nil, false
		}
	}

	reports, err := s.svc.BuildReports(r.Context(), sessionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return reports, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "internal error")
}
