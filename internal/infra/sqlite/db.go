// Package sqlite persists the chain directory: chains, members, and loans.
// It is the authoritative source of record the in-memory snapshots refresh
// from.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite connection for the chain directory.
type DB struct {
	db *sql.DB
}

// Migrations returns the schema migration statements. Each string is a
// single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS chains (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			type           TEXT NOT NULL DEFAULT 'social',
			start_date     TEXT NOT NULL,
			round_seconds  INTEGER NOT NULL,
			total_rounds   INTEGER NOT NULL,
			current_round  INTEGER NOT NULL DEFAULT 1,
			currency       TEXT NOT NULL DEFAULT '',
			total_funds    REAL NOT NULL DEFAULT 0,
			current_funds  REAL NOT NULL DEFAULT 0,
			interest_rate  REAL NOT NULL DEFAULT 0,
			fine_rate      REAL NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Member insertion order is join order; rowid preserves it.
		`CREATE TABLE IF NOT EXISTS members (
			chain_id            TEXT NOT NULL,
			id                  TEXT NOT NULL,
			name                TEXT NOT NULL DEFAULT '',
			wallet              TEXT NOT NULL DEFAULT '',
			contributed         INTEGER NOT NULL DEFAULT 0,
			contribution_amount REAL NOT NULL DEFAULT 0,
			is_lender           INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (chain_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_members_chain ON members(chain_id)`,

		// Loan insertion order is creation order; rowid preserves it.
		`CREATE TABLE IF NOT EXISTS loans (
			id             TEXT PRIMARY KEY,
			chain_id       TEXT NOT NULL,
			borrower_id    TEXT NOT NULL,
			lender_id      TEXT NOT NULL DEFAULT '',
			amount         REAL NOT NULL,
			interest_rate  REAL NOT NULL DEFAULT 0,
			due_date       TEXT NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			repayment_date TEXT,
			created_at     TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_chain ON loans(chain_id)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status)`,
	}
}

// Open opens (creating if needed) the directory database at path and
// applies migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; sqlite serializes anyway and this avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	for _, stmt := range Migrations() {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &DB{db: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.db.Close()
}
