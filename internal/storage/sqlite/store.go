package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates no history row matched the query.
var ErrNotFound = errors.New("history record not found")

// Store keeps a local log of settled analysis sessions so past reports
// remain readable when the backend is unreachable.
type Store struct {
	db *sql.DB
}

// HistoryRecord is one settled analysis session.
type HistoryRecord struct {
	Symbol   string
	Mode     string
	Date     string
	Status   string
	Markdown string
}

// HistoryWithMeta adds row metadata to a record.
type HistoryWithMeta struct {
	HistoryRecord
	RowID     int64
	CreatedAt string
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS analysis_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT NOT NULL,
    mode TEXT NOT NULL,
    analysis_date TEXT NOT NULL,
    status TEXT NOT NULL,
    markdown TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(symbol, mode, analysis_date)
);

CREATE INDEX IF NOT EXISTS idx_history_symbol_created ON analysis_history(symbol, created_at);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// RecordSession upserts a settled session; re-running the same
// (symbol, mode, date) replaces the stored report.
func (s *Store) RecordSession(ctx context.Context, rec HistoryRecord) error {
	if strings.TrimSpace(rec.Symbol) == "" {
		return fmt.Errorf("history symbol is required")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO analysis_history (symbol, mode, analysis_date, status, markdown)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(symbol, mode, analysis_date) DO UPDATE SET
    status=excluded.status,
    markdown=excluded.markdown,
    created_at=CURRENT_TIMESTAMP
`, rec.Symbol, rec.Mode, rec.Date, rec.Status, rec.Markdown)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ListSessions returns recent settled sessions for a symbol, newest first.
func (s *Store) ListSessions(ctx context.Context, symbol string, limit int) ([]HistoryWithMeta, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, symbol, mode, analysis_date, status, markdown, created_at
FROM analysis_history
WHERE symbol = ?
ORDER BY created_at DESC
LIMIT ?
`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var items []HistoryWithMeta
	for rows.Next() {
		var item HistoryWithMeta
		if err := rows.Scan(&item.RowID, &item.Symbol, &item.Mode, &item.Date,
			&item.Status, &item.Markdown, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetSession returns the stored report for one (symbol, mode, date).
func (s *Store) GetSession(ctx context.Context, symbol, mode, date string) (*HistoryWithMeta, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, symbol, mode, analysis_date, status, markdown, created_at
FROM analysis_history
WHERE symbol = ? AND mode = ? AND analysis_date = ?
`, symbol, mode, date)

	var item HistoryWithMeta
	err := row.Scan(&item.RowID, &item.Symbol, &item.Mode, &item.Date,
		&item.Status, &item.Markdown, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return &item, nil
}
