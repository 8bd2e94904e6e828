package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"caixa/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists reconciliation state across process restarts.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// migrateSchema brings the session schema up to date on a dedicated
// connection, released before the store starts serving.
func migrateSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open schema connection: %w", err)
	}
	defer db.Close()

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply session migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (State, error) {
	state := NewState()

	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id FROM exclusions WHERE session_id = ?`, sessionID)
	if err != nil {
		return State{}, fmt.Errorf("load exclusions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return State{}, fmt.Errorf("scan exclusion: %w", err)
		}
		state.Excluded[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate exclusions: %w", err)
	}

	resolved, err := s.db.QueryContext(ctx,
		`SELECT conflict_date, conflict_amount, action FROM resolved_conflicts WHERE session_id = ?`, sessionID)
	if err != nil {
		return State{}, fmt.Errorf("load resolved conflicts: %w", err)
	}
	defer resolved.Close()
	for resolved.Next() {
		var date, amount, action string
		if err := resolved.Scan(&date, &amount, &action); err != nil {
			return State{}, fmt.Errorf("scan resolved conflict: %w", err)
		}
		state.Resolved[core.ConflictKey{Date: date, Amount: amount}] = core.Decision(action)
	}
	if err := resolved.Err(); err != nil {
		return State{}, fmt.Errorf("iterate resolved conflicts: %w", err)
	}

	return state, nil
}

func (s *SQLiteStore) MarkResolved(ctx context.Context, sessionID string, key core.ConflictKey, action core.Decision, excludedIDs []int) error {
	if !action.IsValid() {
		return core.ErrUnknownDecision
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// INSERT OR IGNORE keeps re-resolution a no-op: a second decision on
	// the same key neither changes the action nor adds exclusions.
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO resolved_conflicts (session_id, conflict_date, conflict_amount, action)
		 VALUES (?, ?, ?, ?)`,
		sessionID, key.Date, key.Amount, string(action))
	if err != nil {
		return fmt.Errorf("insert resolved conflict: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if inserted == 0 {
		return nil
	}

	for _, id := range excludedIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO exclusions (session_id, record_id) VALUES (?, ?)`,
			sessionID, id); err != nil {
			return fmt.Errorf("insert exclusion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Conflict resolution persisted",
		"session_id", sessionID,
		"conflict_key", key.String(),
		"action", string(action),
		"excluded", len(excludedIDs))

	return nil
}
