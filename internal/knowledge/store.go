package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists file embeddings in SQLite. Vectors are stored as JSON
// arrays and searched with a cosine-similarity scan; at the corpus
// sizes a single monolith produces this outperforms maintaining an ANN
// index.
type Store struct {
	db *sql.DB
}

// FileVector is one stored file with its embedding.
type FileVector struct {
	RunID    string
	Path     string
	Content  string
	Vector   []float32
	Metadata map[string]any
}

// SearchHit is one similarity search result.
type SearchHit struct {
	Path       string         `json:"path"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewStore opens (creating if necessary) the vector database at path.
// Use ":memory:" for tests.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS file_vectors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding TEXT,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_file_vectors_run ON file_vectors(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize vector store: %w", err)
	}
	return &Store{db: db}, nil
}

// Put inserts or replaces one file vector. Transient write failures are
// retried with backoff.
func (s *Store) Put(ctx context.Context, fv FileVector) error {
	embJSON, err := json.Marshal(fv.Vector)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	metaJSON, _ := json.Marshal(fv.Metadata)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond):
			}
		}
		_, lastErr = s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO file_vectors (run_id, path, content, embedding, metadata)
			 VALUES (?, ?, ?, ?, ?)`,
			fv.RunID, fv.Path, fv.Content, string(embJSON), string(metaJSON))
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("store vector for %s: %w", fv.Path, lastErr)
}

// SearchSimilar scans the run's vectors and returns the top-k hits by
// cosine similarity against query.
func (s *Store) SearchSimilar(ctx context.Context, runID string, query []float32, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, content, embedding, metadata FROM file_vectors WHERE run_id = ?`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var path, content string
		var embJSON, metaJSON sql.NullString
		if err := rows.Scan(&path, &content, &embJSON, &metaJSON); err != nil {
			return nil, err
		}
		if !embJSON.Valid || embJSON.String == "" {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(embJSON.String), &vec); err != nil {
			continue
		}
		hit := SearchHit{
			Path:       path,
			Content:    content,
			Similarity: CosineSimilarity(query, vec),
		}
		if metaJSON.Valid && metaJSON.String != "" {
			json.Unmarshal([]byte(metaJSON.String), &hit.Metadata)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Partial sort is not worth it at these sizes.
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if hits[j].Similarity > hits[i].Similarity {
				hits[i], hits[j] = hits[j], hits[i]
			}
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of stored vectors for a run.
func (s *Store) Count(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM file_vectors WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
