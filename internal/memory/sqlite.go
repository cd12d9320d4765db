package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/temblorlabs/temblor/internal/embedding"
	"github.com/temblorlabs/temblor/internal/logging"
)

// SQLiteStore persists vectors and payloads in a local sqlite database.
// Vectors are stored as JSON arrays and searched with exact cosine
// similarity in Go; suitable for single-node deployments and replay runs
// where corpus sizes stay in the thousands.
type SQLiteStore struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewSQLiteStore opens (or creates) the database at path and prepares the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}
	s := &SQLiteStore{db: db, logger: logging.GetLogger("memory.sqlite")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	dim  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS points (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	vector     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Ensure registers the collection. An existing collection with a different
// dimension is an error.
func (s *SQLiteStore) Ensure(ctx context.Context, collection string, dim int) error {
	var existing int
	err := s.db.QueryRowContext(ctx,
		`SELECT dim FROM collections WHERE name = ?`, collection).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO collections (name, dim) VALUES (?, ?)`, collection, dim); err != nil {
			return fmt.Errorf("failed to create collection %q: %w", collection, err)
		}
		s.logger.WithField("collection", collection).Debug("created collection")
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up collection %q: %w", collection, err)
	case existing != dim:
		return fmt.Errorf("collection %q exists with dimension %d, requested %d: %w",
			collection, existing, dim, ErrDimensionMismatch)
	}
	return nil
}

// Exists reports whether the collection is registered.
func (s *SQLiteStore) Exists(ctx context.Context, collection string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collections WHERE name = ?`, collection).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up collection %q: %w", collection, err)
	}
	return n > 0, nil
}

// Upsert inserts or replaces points in a single transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, collection string, points []Point) error {
	dim, err := s.collectionDim(ctx, collection)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO points (collection, id, vector, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if len(p.Vector) != dim {
			return fmt.Errorf("point %q has dimension %d, collection %q requires %d: %w",
				p.ID, len(p.Vector), collection, dim, ErrDimensionMismatch)
		}
		vecJSON, err := json.Marshal(p.Vector)
		if err != nil {
			return fmt.Errorf("failed to serialize vector for point %q: %w", p.ID, err)
		}
		payloadJSON, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("failed to serialize payload for point %q: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, p.ID, string(vecJSON), string(payloadJSON)); err != nil {
			return fmt.Errorf("failed to upsert point %q: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// KNN loads all points in the collection and ranks them by exact cosine
// similarity, best first. Rowid order breaks score ties deterministically.
func (s *SQLiteStore) KNN(ctx context.Context, collection string, vector []float32, k int) ([]Scored, error) {
	dim, err := s.collectionDim(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("query has dimension %d, collection %q requires %d: %w",
			len(vector), collection, dim, ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vector, payload FROM points WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection %q: %w", collection, err)
	}
	defer rows.Close()

	var scored []Scored
	for rows.Next() {
		var id, vecJSON, payloadJSON string
		if err := rows.Scan(&id, &vecJSON, &payloadJSON); err != nil {
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal([]byte(vecJSON), &vec); err != nil {
			s.logger.WithField("id", id).Warn("skipping point with malformed vector")
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			s.logger.WithField("id", id).Warn("skipping point with malformed payload")
			continue
		}
		sim, err := embedding.CosineSimilarity(vector, vec)
		if err != nil {
			s.logger.WithField("id", id).Warn("skipping point with mismatched vector dimension")
			continue
		}
		scored = append(scored, Scored{
			Point: Point{ID: id, Vector: vec, Payload: payload},
			Score: normalizeCosine(sim),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *SQLiteStore) collectionDim(ctx context.Context, collection string) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx,
		`SELECT dim FROM collections WHERE name = ?`, collection).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("collection %q does not exist", collection)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up collection %q: %w", collection, err)
	}
	return dim, nil
}
