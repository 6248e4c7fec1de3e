// Package sqlite is the embedded single-file record store.
package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Open opens the database at path and configures WAL mode. A single
// connection is kept so writers queue in-process instead of hitting
// SQLITE_BUSY; busy_timeout covers other processes sharing the file.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS validation_results (
	id               TEXT PRIMARY KEY,
	filename         TEXT NOT NULL UNIQUE,
	timestamp        TEXT NOT NULL,
	fields           TEXT NOT NULL DEFAULT '{}',
	valid            INTEGER NOT NULL DEFAULT 0,
	issues           TEXT NOT NULL DEFAULT '[]',
	confidence       INTEGER NOT NULL DEFAULT 0,
	ai_suggestion    TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'pending',
	reviewed_by      TEXT,
	reviewed_at      TEXT,
	reviewer_comment TEXT,
	audit_trail      TEXT NOT NULL DEFAULT '[]',
	updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_results_status ON validation_results(status);
CREATE INDEX IF NOT EXISTS idx_validation_results_timestamp ON validation_results(timestamp);
`

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return eris.Wrap(err, "sqlite: migrate")
}
