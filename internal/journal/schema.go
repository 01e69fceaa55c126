package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS operations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session TEXT NOT NULL,
    started_at TEXT NOT NULL,
    op TEXT NOT NULL,          -- 'loadModel', 'command', 'report', 'killWorkspace'
    input TEXT,                -- model path or source text
    result TEXT,               -- JSON of the normalized value
    result_kind TEXT,
    error TEXT,
    error_class TEXT,          -- 'model_load', 'simulation', 'engine', ...
    duration_us INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_operations_session ON operations(session, id);
CREATE INDEX IF NOT EXISTS idx_operations_op ON operations(op);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the journal tables and records the schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var version int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("journal schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	if version < SchemaVersion {
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	}
	return nil
}
