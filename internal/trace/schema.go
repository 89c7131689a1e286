package trace

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current trace database schema version.
const SchemaVersion = 2

// v and w are nullable: SQLite stores NaN as NULL, and a diverged run
// must still record every tick.
const schemaV2 = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL DEFAULT '',
    config TEXT,  -- JSON network constants
    started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    tick INTEGER NOT NULL,
    neuron INTEGER NOT NULL,
    v REAL,
    w REAL,
    firing INTEGER NOT NULL,
    PRIMARY KEY (run_id, tick, neuron)
);

CREATE TABLE IF NOT EXISTS events (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    tick INTEGER NOT NULL,
    kind TEXT NOT NULL,
    subject INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, tick);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// migrateV1 relaxes the NOT NULL constraint v1 put on samples.v and
// samples.w.
const migrateV1 = `
CREATE TABLE samples_v2 (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    tick INTEGER NOT NULL,
    neuron INTEGER NOT NULL,
    v REAL,
    w REAL,
    firing INTEGER NOT NULL,
    PRIMARY KEY (run_id, tick, neuron)
);
INSERT INTO samples_v2 SELECT run_id, tick, neuron, v, w, firing FROM samples;
DROP TABLE samples;
ALTER TABLE samples_v2 RENAME TO samples;
`

// InitSchema creates the trace tables if they do not exist and migrates
// older databases forward.
func InitSchema(ctx context.Context, db *sql.DB) error {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err == nil {
		switch {
		case version > SchemaVersion:
			return fmt.Errorf("trace schema version %d is newer than supported %d", version, SchemaVersion)
		case version == 1:
			return migrate(ctx, db, migrateV1)
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV2); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

func migrate(ctx context.Context, db *sql.DB, ddl string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}
