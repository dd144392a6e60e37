// Package history persists run artifacts (assessments, remediation reports,
// processing reports) to SQLite so report generators and the HTTP surface
// can list and fetch past runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// Run kinds.
const (
	KindAssessment  = "assessment"
	KindRemediation = "remediation"
	KindProcessing  = "processing"
)

// Run is one persisted pipeline run. Payload holds the full report as JSON.
type Run struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	TableName string          `json:"table_name"`
	Score     float64         `json:"score"`
	Status    string          `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// runRow maps 1:1 to the runs table for sqlx scanning.
type runRow struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	TableName string    `db:"table_name"`
	Score     float64   `db:"score"`
	Status    string    `db:"status"`
	Payload   []byte    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

func (r runRow) toModel() (Run, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Run{}, fmt.Errorf("parse run id: %w", err)
	}
	return Run{
		ID:        id,
		Kind:      r.Kind,
		TableName: r.TableName,
		Score:     r.Score,
		Status:    r.Status,
		Payload:   r.Payload,
		CreatedAt: r.CreatedAt,
	}, nil
}

// Store persists runs to SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore opens the run history database. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "ndmokit.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			table_name TEXT NOT NULL,
			score REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT '',
			payload BLOB,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_table ON runs(table_name, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind, created_at)`,
	}

	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// SaveRun persists one run. The payload is marshaled to JSON here so callers
// hand in the report struct directly.
func (s *Store) SaveRun(ctx context.Context, id uuid.UUID, kind, tableName string, score float64, status string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal run payload: %w", err)
	}

	const q = `INSERT INTO runs (id, kind, table_name, score, status, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, id.String(), kind, tableName, score, status, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun returns one run with its full payload.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var row runRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM runs WHERE id = ?", id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	run, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first, payloads omitted. Kind and tableName
// filter when non-empty; limit <= 0 means 50.
func (s *Store) ListRuns(ctx context.Context, kind, tableName string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	q := "SELECT id, kind, table_name, score, status, created_at FROM runs WHERE 1=1"
	var args []any
	if kind != "" {
		q += " AND kind = ?"
		args = append(args, kind)
	}
	if tableName != "" {
		q += " AND table_name = ?"
		args = append(args, tableName)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.toModel()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
