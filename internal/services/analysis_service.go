// Package services orchestrates the analysis pipeline for one uploaded
// dataset: normalize, reconcile, expand, report.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"caixa/internal/core"
	"caixa/internal/expand"
	"caixa/internal/ingest"
	"caixa/internal/normalize"
	"caixa/internal/reconcile"
	"caixa/internal/report"
	"caixa/internal/session"
)

// EventPublisher notifies external collaborators about session events.
// The AMQP client implements it; a nil publisher disables events.
type EventPublisher interface {
	PublishConflictPending(ctx context.Context, sessionID string, group core.ConflictGroup) error
	PublishReportReady(ctx context.Context, sessionID string) error
}

// Session is one uploaded dataset held in memory for its lifetime.
// Reconciliation state lives in the session store, not here.
type Session struct {
	ID        string
	Records   []core.Record
	CreatedAt time.Time
}

// Reports bundles the two outputs of a session.
type Reports struct {
	Cashflow []core.CashflowCycle
	ABC      core.ABCReport
}

// AnalysisService is the single pipeline behind both the HTTP surface
// and the CLI; the decision source is injected per call, so batch and
// interactive runs share every other step.
type AnalysisService struct {
	store      session.Store
	reconciler *reconcile.Reconciler
	events     EventPublisher
	rules      []report.VendorRule

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewAnalysisService(store session.Store, events EventPublisher) *AnalysisService {
	return &AnalysisService{
		store:      store,
		reconciler: reconcile.New(store),
		events:     events,
		rules:      report.DefaultVendorRules,
		sessions:   make(map[string]*Session),
	}
}

// CreateSession ingests a workbook, normalizes the two period tables and
// registers a new session. Pending conflict groups are announced to the
// event publisher.
func (s *AnalysisService) CreateSession(ctx context.Context, src ingest.Source) (*Session, []core.ConflictGroup, error) {
	tables, err := src.Tables(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read workbook: %w", err)
	}
	first, second, err := normalize.FindPeriodTables(tables)
	if err != nil {
		return nil, nil, err
	}
	records, err := normalize.Run(ctx, first, second)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize tables: %w", err)
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Records:   records,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	pending, err := s.PendingConflicts(ctx, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	s.publishPending(ctx, sess.ID, pending)

	slog.InfoContext(ctx, "Session created",
		"session_id", sess.ID,
		"records", len(records),
		"pending_conflicts", len(pending),
		"first_table", first.Name,
		"second_table", second.Name)

	return sess, pending, nil
}

func (s *AnalysisService) publishPending(ctx context.Context, sessionID string, pending []core.ConflictGroup) {
	if s.events == nil {
		return
	}
	for _, group := range pending {
		if err := s.events.PublishConflictPending(ctx, sessionID, group); err != nil {
			// The decision can still arrive through HTTP or the CLI.
			slog.ErrorContext(ctx, "Failed to publish pending conflict",
				"session_id", sessionID,
				"conflict_key", group.Key.String(),
				"error", err)
		}
	}
}

func (s *AnalysisService) lookup(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return sess, nil
}

// PendingConflicts returns the unresolved, still-active conflict groups
// of a session in presentation order.
func (s *AnalysisService) PendingConflicts(ctx context.Context, sessionID string) ([]core.ConflictGroup, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	return reconcile.Groups(sess.Records, state), nil
}

// Decide applies one out-of-band operator decision. Idempotent per
// group.
func (s *AnalysisService) Decide(ctx context.Context, sessionID string, key core.ConflictKey, action core.Decision) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	return s.reconciler.Resolve(ctx, sessionID, sess.Records, key, action)
}

// RunReconciliation drives reconciliation to completion with the given
// decision source (nil means keep-all for every group).
func (s *AnalysisService) RunReconciliation(ctx context.Context, sessionID string, src reconcile.DecisionSource) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	if _, err := s.reconciler.Run(ctx, sessionID, sess.Records, src); err != nil {
		return fmt.Errorf("reconcile session %s: %w", sessionID, err)
	}
	return nil
}

// BuildReports produces the cash-flow statement and the ABC analysis
// from the session's current post-reconciliation state. Unresolved
// groups are left as-is, which matches the keep-all default of the
// non-interactive mode.
func (s *AnalysisService) BuildReports(ctx context.Context, sessionID string) (*Reports, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}

	kept := reconcile.Apply(sess.Records, state)
	entries := expand.Run(kept)

	reports := &Reports{
		Cashflow: report.Cashflow(entries),
		ABC:      report.ABC(entries, s.rules),
	}

	if s.events != nil {
		if err := s.events.PublishReportReady(ctx, sessionID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish report ready",
				"session_id", sessionID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Reports built",
		"session_id", sessionID,
		"ledger_entries", len(entries),
		"cycles", len(reports.Cashflow),
		"abc_categories", len(reports.ABC.Rows))

	return reports, nil
}
