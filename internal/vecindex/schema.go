package vecindex

import (
	"context"
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion tracks the collection schema version.
const CurrentSchemaVersion = "1.0.0"

const schemaUp = `
-- Manifest: one row per collection file, written after entries so a
-- crash between writes never publishes a count ahead of the data.
CREATE TABLE IF NOT EXISTS manifest (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    collection TEXT NOT NULL,
    dimension INTEGER NOT NULL DEFAULT 0,
    entry_count INTEGER NOT NULL DEFAULT 0,
    schema_version TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Entries: self-describing units; no entry depends on a later one.
CREATE TABLE IF NOT EXISTS entries (
    chunk_id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL,
    source_name TEXT NOT NULL,
    seq INTEGER NOT NULL,
    text TEXT NOT NULL,
    vector BLOB NOT NULL,
    insert_order INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source_name);
`

// applySchema creates the collection schema and seeds the manifest row.
func applySchema(ctx context.Context, db *sql.DB, collection string) error {
	if _, err := db.ExecContext(ctx, schemaUp); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO manifest (id, collection, dimension, entry_count, schema_version)
		VALUES (1, ?, 0, 0, ?)
		ON CONFLICT(id) DO NOTHING
	`, collection, CurrentSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to seed manifest: %w", err)
	}
	return nil
}
