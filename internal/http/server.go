// Package http exposes the session API: workbook upload, conflict
// listing, operator decisions and report retrieval.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"caixa/internal/services"
)

type Server struct {
	http.Server
	svc *services.AnalysisService
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.AnalysisService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc: svc,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /api/sessions", s.withLogging(s.handleCreateSession))
	mux.HandleFunc("GET /api/sessions/{id}/conflicts", s.withLogging(s.handleListConflicts))
	mux.HandleFunc("POST /api/sessions/{id}/decisions", s.withLogging(s.handlePostDecision))
	mux.HandleFunc("GET /api/sessions/{id}/reports/cashflow", s.withLogging(s.handleCashflowReport))
	mux.HandleFunc("GET /api/sessions/{id}/reports/abc", s.withLogging(s.handleABCReport))

	return s
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withLogging adds request logging and a request ID to responses.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		w.Header().Set("X-Request-ID", requestID)

		next(w, r)

		slog.InfoContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
			"duration_ms", time.Since(start).Milliseconds())
	}
}
