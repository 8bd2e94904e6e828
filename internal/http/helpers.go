package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"caixa/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Response shapes. Monetary values travel as fixed-point strings so
// clients never round-trip them through float64.
type (
	memberDTO struct {
		ID            int    `json:"id"`
		Title         string `json:"title"`
		PaymentMethod string `json:"payment_method"`
	}

	conflictDTO struct {
		Date    string      `json:"date"`
		Amount  string      `json:"amount"`
		Members []memberDTO `json:"members"`
	}

	sessionDTO struct {
		SessionID        string        `json:"session_id"`
		Records          int           `json:"records"`
		PendingConflicts []conflictDTO `json:"pending_conflicts"`
	}

	decisionRequest struct {
		Date   string `json:"date"`
		Amount string `json:"amount"`
		Action string `json:"action"`
	}

	cashflowRowDTO struct {
		Date   string `json:"date"`
		Title  string `json:"title"`
		Amount string `json:"amount"`
	}

	cashflowCycleDTO struct {
		Label string           `json:"cycle_label"`
		Total string           `json:"total"`
		Rows  []cashflowRowDTO `json:"rows"`
	}

	abcRowDTO struct {
		Class          string `json:"class"`
		Category       string `json:"category"`
		Total          string `json:"total"`
		PercentOfTotal string `json:"percent_of_total"`
	}

	abcDTO struct {
		GrandTotal string      `json:"grand_total"`
		Rows       []abcRowDTO `json:"rows"`
	}
)

func toConflictDTOs(groups []core.ConflictGroup) []conflictDTO {
	out := make([]conflictDTO, 0, len(groups))
	for _, g := range groups {
		members := make([]memberDTO, 0, len(g.Members))
		for _, rec := range g.Members {
			members = append(members, memberDTO{
				ID:            rec.ID,
				Title:         rec.Title,
				PaymentMethod: rec.PaymentMethod,
			})
		}
		out = append(out, conflictDTO{Date: g.Key.Date, Amount: g.Key.Amount, Members: members})
	}
	return out
}

func toCashflowDTO(cycles []core.CashflowCycle) []cashflowCycleDTO {
	out := make([]cashflowCycleDTO, 0, len(cycles))
	for _, cycle := range cycles {
		rows := make([]cashflowRowDTO, 0, len(cycle.Rows))
		for _, row := range cycle.Rows {
			date := ""
			if !row.Date.IsEmpty() {
				date = row.Date.Format("2006-01-02")
			}
			rows = append(rows, cashflowRowDTO{
				Date:   date,
				Title:  row.Title,
				Amount: row.Amount.StringFixed(2),
			})
		}
		out = append(out, cashflowCycleDTO{
			Label: cycle.Label,
			Total: cycle.Total.StringFixed(2),
			Rows:  rows,
		})
	}
	return out
}

func toABCDTO(r core.ABCReport) abcDTO {
	rows := make([]abcRowDTO, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, abcRowDTO{
			Class:          row.Class,
			Category:       row.Category,
			Total:          row.Total.StringFixed(2),
			PercentOfTotal: row.Percent.StringFixed(1),
		})
	}
	return abcDTO{GrandTotal: r.GrandTotal.StringFixed(2), Rows: rows}
}
