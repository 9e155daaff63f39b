package knowledge

import (
	"context"

	"go.uber.org/zap"

	"monoshift/internal/repo"
)

const (
	embedBatchSize = 10
	// Files outside these bounds carry no useful signal for retrieval.
	maxEmbedBytes = 1 << 20
	minEmbedBytes = 10
)

// Index ties an embedder to the vector store and exposes the two
// operations the pipeline needs: bulk-index a parsed repository and
// search it afterwards.
type Index struct {
	embedder Embedder
	store    *Store
	log      *zap.Logger
}

// NewIndex wires an Index. embedder may be nil, which turns IndexFiles
// and Search into no-ops; the pipeline runs fine without embeddings.
func NewIndex(embedder Embedder, store *Store, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{embedder: embedder, store: store, log: log}
}

// Enabled reports whether an embedding backend is configured.
func (ix *Index) Enabled() bool {
	return ix != nil && ix.embedder != nil && ix.store != nil
}

// IndexFiles embeds and stores every eligible parsed file. A failing
// batch is logged and skipped; indexing is best-effort and never fails
// the run.
func (ix *Index) IndexFiles(ctx context.Context, runID string, files map[string]repo.FileRecord) {
	if !ix.Enabled() {
		return
	}

	var batch []repo.FileRecord
	flush := func() {
		if len(batch) == 0 {
			return
		}
		texts := make([]string, len(batch))
		for i, f := range batch {
			// The prefix steers code-tuned embedding models.
			texts[i] = "code: " + f.Content
		}
		vecs, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			ix.log.Warn("embedding batch failed, skipping",
				zap.Int("files", len(batch)), zap.Error(err))
			batch = batch[:0]
			return
		}
		for i, f := range batch {
			err := ix.store.Put(ctx, FileVector{
				RunID:   runID,
				Path:    f.Path,
				Content: f.Content,
				Vector:  vecs[i],
				Metadata: map[string]any{
					"language":  f.Language,
					"extension": f.Extension,
				},
			})
			if err != nil {
				ix.log.Warn("vector store write failed",
					zap.String("path", f.Path), zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	for _, f := range files {
		if len(f.Content) < minEmbedBytes || len(f.Content) > maxEmbedBytes {
			continue
		}
		batch = append(batch, f)
		if len(batch) >= embedBatchSize {
			flush()
		}
	}
	flush()

	if n, err := ix.store.Count(ctx, runID); err == nil {
		ix.log.Info("indexed repository files",
			zap.String("run_id", runID), zap.Int("vectors", n))
	}
}

// Search embeds the query and returns the top-k most similar files.
func (ix *Index) Search(ctx context.Context, runID, query string, limit int) ([]SearchHit, error) {
	if !ix.Enabled() {
		return nil, nil
	}
	vec, err := ix.embedder.Embed(ctx, "code: "+query)
	if err != nil {
		return nil, err
	}
	return ix.store.SearchSimilar(ctx, runID, vec, limit)
}
