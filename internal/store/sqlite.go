package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/worktimer/internal/logging"
)

// SQLite keeps every month table in a single sessions table.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (or creates) the SQLite database at dbPath.
func NewSQLite(dbPath string, logger *slog.Logger) (*SQLite, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	const ddl = `
	CREATE TABLE IF NOT EXISTS sessions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		month_key  TEXT NOT NULL,
		date       TEXT NOT NULL,
		summary    TEXT NOT NULL DEFAULT '',
		duration   TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_month ON sessions(month_key);
	`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SQLite{db: db, logger: logger}, nil
}

// NewSQLiteMemory creates an in-memory store for testing.
func NewSQLiteMemory() (*SQLite, error) {
	return NewSQLite(":memory:", nil)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Commit(ctx context.Context, key Key, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (month_key, date, summary, duration, created_at) VALUES (?, ?, ?, ?, ?)`,
		key.String(), rec.Date, rec.Summary, rec.Duration, now,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	s.logger.Info("session committed", "table", key.String(), "duration", rec.Duration)
	return nil
}

func (s *SQLite) Load(ctx context.Context, key Key) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, summary, duration FROM sessions WHERE month_key = ? ORDER BY id`, key.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", key, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Date, &r.Summary, &r.Duration); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) Months(ctx context.Context) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT month_key FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keysFromNames(names), nil
}
