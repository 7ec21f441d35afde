package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region schema
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS binding_attempts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	attempt_id    TEXT NOT NULL,
	symbol_id     TEXT NOT NULL,
	attempted_at  TEXT NOT NULL,
	success       INTEGER NOT NULL,
	attempt_json  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_symbol ON binding_attempts(symbol_id);
`

// #endregion schema

const sqliteBufferSize = 10

// #region sqlite-sink
// SQLite stores attempts in a local database, one transaction per
// flushed batch. The full record rides along as JSON next to the
// queryable columns.
type SQLite struct {
	db  *sql.DB
	buf []symbol.BindingAttempt
}

// NewSQLite opens (and migrates) a SQLite-backed sink at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Write buffers the attempt and flushes once the batch is full.
func (s *SQLite) Write(a symbol.BindingAttempt) error {
	s.buf = append(s.buf, a)
	if len(s.buf) >= sqliteBufferSize {
		return s.Flush()
	}
	return nil
}

// Flush inserts all buffered attempts in one transaction.
func (s *SQLite) Flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, a := range s.buf {
		blob, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal attempt: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO binding_attempts (attempt_id, symbol_id, attempted_at, success, attempt_json)
			 VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.SymbolID, a.AttemptedAt.UTC().Format(time.RFC3339Nano), a.Success, string(blob),
		); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.buf = s.buf[:0]
	return nil
}

// Close flushes the remaining batch and closes the database.
func (s *SQLite) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// #endregion sqlite-sink

// #region sqlite-reader
// ReadSQLite loads a trail written by SQLite, in insert order.
func ReadSQLite(dbPath string) ([]symbol.BindingAttempt, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT attempt_json FROM binding_attempts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []symbol.BindingAttempt
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		var a symbol.BindingAttempt
		if err := json.Unmarshal([]byte(blob), &a); err != nil {
			return nil, fmt.Errorf("parse attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// #endregion sqlite-reader
