// Package vecindex provides a durable, SQLite-backed vector index.
//
// A Collection is a named directory containing an index.db file. Entries
// are written inside a transaction before the manifest count is updated,
// so a crash between writes never corrupts previously persisted entries
// and every entry is independently valid. Inconsistent state is detected
// by Verify and reported as types.ErrIndexInconsistent so the caller can
// rebuild from source documents.
package vecindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dshills/docassist/pkg/types"
)

// Entry is the unit stored in the index: chunk identity, vector,
// provenance metadata, and the source text.
type Entry struct {
	ChunkID    string
	DocumentID string
	SourceName string
	Sequence   int
	Text       string
	Vector     []float32
}

// Result is one ranked match from a query.
type Result struct {
	Entry      Entry
	Similarity float64
}

// Index is a durable vector index for one collection.
type Index struct {
	db         *sql.DB
	collection string
	dir        string
}

// Open opens (creating if needed) the index for a named collection under
// dataDir.
func Open(dataDir, collection string) (*Index, error) {
	dir := filepath.Join(dataDir, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create collection directory: %w", err)
	}

	db, err := openDatabase(filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, err
	}

	if err := applySchema(context.Background(), db, collection); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Index{db: db, collection: collection, dir: dir}, nil
}

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers unblocked while an upsert commits, giving
	// queries snapshot isolation over the last published state.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Collection returns the collection name.
func (ix *Index) Collection() string {
	return ix.collection
}

// Dimension returns the locked embedding dimension, or 0 when the
// collection is empty and the dimension is not yet fixed.
func (ix *Index) Dimension(ctx context.Context) (int, error) {
	var dim int
	err := ix.db.QueryRowContext(ctx, `SELECT dimension FROM manifest WHERE id = 1`).Scan(&dim)
	if err != nil {
		return 0, fmt.Errorf("failed to read manifest: %w", err)
	}
	return dim, nil
}

// Upsert durably stores entries before returning. The first upsert locks
// the collection's embedding dimension; later vectors must match it.
// Entries are replaced, never mutated in place.
func (ix *Index) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	dim, err := ix.Dimension(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %s: empty vector", e.ChunkID)
		}
		if dim == 0 {
			dim = len(e.Vector)
		} else if len(e.Vector) != dim {
			return fmt.Errorf("entry %s has dimension %d, collection requires %d: %w",
				e.ChunkID, len(e.Vector), dim, types.ErrDimensionMismatch)
		}
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Entries first, manifest second: append-then-publish.
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO entries
				(chunk_id, document_id, source_name, seq, text, vector, insert_order)
			VALUES (?, ?, ?, ?, ?, ?,
				COALESCE((SELECT MAX(insert_order) FROM entries), 0) + 1)
		`, e.ChunkID, e.DocumentID, e.SourceName, e.Sequence, e.Text, serializeVector(e.Vector))
		if err != nil {
			return fmt.Errorf("failed to upsert entry %s: %w", e.ChunkID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE manifest
		SET dimension = ?,
		    entry_count = (SELECT COUNT(*) FROM entries),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, dim)
	if err != nil {
		return fmt.Errorf("failed to update manifest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// Query returns the k nearest entries by cosine similarity, ranked
// non-increasing with ties broken by insertion order. k greater than the
// collection size returns all entries ranked.
func (ix *Index) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if k <= 0 {
		return []Result{}, nil
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, source_name, seq, text, vector, insert_order
		FROM entries
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type candidate struct {
		result Result
		order  int64
	}
	candidates := make([]candidate, 0)

	for rows.Next() {
		var e Entry
		var blob []byte
		var order int64
		if err := rows.Scan(&e.ChunkID, &e.DocumentID, &e.SourceName, &e.Sequence, &e.Text, &blob, &order); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Vector = deserializeVector(blob)
		if len(e.Vector) != len(vector) {
			// Dimension drift: leave detection to Verify.
			continue
		}
		candidates = append(candidates, candidate{
			result: Result{Entry: e, Similarity: cosineSimilarity(vector, e.Vector)},
			order:  order,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].result.Similarity != candidates[j].result.Similarity {
			return candidates[i].result.Similarity > candidates[j].result.Similarity
		}
		return candidates[i].order < candidates[j].order
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	results := make([]Result, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, c.result)
	}
	return results, nil
}

// Count returns the number of persisted entries.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Sources returns the distinct source names in insertion order.
func (ix *Index) Sources(ctx context.Context) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT source_name FROM entries
		GROUP BY source_name
		ORDER BY MIN(insert_order)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// Verify checks that the manifest agrees with the persisted entries.
// Disagreement returns types.ErrIndexInconsistent: the collection should
// be rebuilt by re-ingesting source documents, not treated as fatal.
func (ix *Index) Verify(ctx context.Context) error {
	var manifestCount, manifestDim int
	err := ix.db.QueryRowContext(ctx,
		`SELECT entry_count, dimension FROM manifest WHERE id = 1`).Scan(&manifestCount, &manifestDim)
	if err != nil {
		return fmt.Errorf("%w: manifest unreadable: %v", types.ErrIndexInconsistent, err)
	}

	actual, err := ix.Count(ctx)
	if err != nil {
		return err
	}
	if actual != manifestCount {
		return fmt.Errorf("%w: manifest records %d entries, found %d",
			types.ErrIndexInconsistent, manifestCount, actual)
	}

	if actual > 0 {
		var blob []byte
		err := ix.db.QueryRowContext(ctx, `SELECT vector FROM entries LIMIT 1`).Scan(&blob)
		if err != nil {
			return fmt.Errorf("%w: entries unreadable: %v", types.ErrIndexInconsistent, err)
		}
		if len(blob)/4 != manifestDim {
			return fmt.Errorf("%w: manifest dimension %d, entry dimension %d",
				types.ErrIndexInconsistent, manifestDim, len(blob)/4)
		}
	}
	return nil
}

// Reset deletes all entries and unlocks the dimension, leaving an empty
// but valid collection.
func (ix *Index) Reset(ctx context.Context) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE manifest SET dimension = 0, entry_count = 0, updated_at = CURRENT_TIMESTAMP WHERE id = 1
	`)
	if err != nil {
		return fmt.Errorf("failed to reset manifest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
