package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vscan/internal/modules/scan/domain"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// SQLiteHistory keeps one row per symbol and session. A symbol detected again
// after it expired from the debounce window bumps its row.
type SQLiteHistory struct {
	db *sql.DB
}

func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	history := &SQLiteHistory{db: db}
	if err := history.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return history, nil
}

func (s *SQLiteHistory) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS detections (
  session_id TEXT NOT NULL,
  signature TEXT NOT NULL,
  format TEXT NOT NULL,
  text TEXT NOT NULL,
  hits INTEGER NOT NULL DEFAULT 1,
  first_seen_at TEXT NOT NULL,
  seen_at TEXT NOT NULL,
  PRIMARY KEY (session_id, signature)
);
CREATE INDEX IF NOT EXISTS detections_seen_at ON detections(seen_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create detections table: %w", err)
	}
	return nil
}

func (s *SQLiteHistory) Append(ctx context.Context, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	const stmt = `
INSERT INTO detections (session_id, signature, format, text, hits, first_seen_at, seen_at)
VALUES (?, ?, ?, ?, 1, ?, ?)
ON CONFLICT(session_id, signature) DO UPDATE SET
  hits=detections.hits + 1,
  seen_at=excluded.seen_at;
`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	for _, e := range entries {
		at := e.SeenAt.UTC().Format(timeLayout)
		if _, err := tx.ExecContext(ctx, stmt, e.SessionID, e.Signature, e.Format.String(), e.Text, at, at); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append detection: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

func (s *SQLiteHistory) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, signature, format, text, seen_at
FROM detections
ORDER BY seen_at DESC, signature ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			e      domain.HistoryEntry
			format string
			seenAt string
		)
		if err := rows.Scan(&e.SessionID, &e.Signature, &format, &e.Text, &seenAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if err := e.Format.UnmarshalText([]byte(format)); err != nil {
			return nil, fmt.Errorf("history format: %w", err)
		}
		e.SeenAt, err = time.Parse(timeLayout, seenAt)
		if err != nil {
			return nil, fmt.Errorf("history time: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}
