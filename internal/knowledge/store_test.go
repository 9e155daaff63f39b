package knowledge

import (
	"context"
	"fmt"
	"testing"

	"monoshift/internal/repo"
)

// fakeEmbedder maps each text to a deterministic 3-dim vector so
// similarity ordering is predictable.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) Name() string    { return "fake" }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	put := func(path string, vec []float32) {
		t.Helper()
		if err := s.Put(ctx, FileVector{RunID: "r1", Path: path, Content: "c-" + path, Vector: vec}); err != nil {
			t.Fatalf("Put %s: %v", path, err)
		}
	}
	put("close.cs", []float32{1, 0, 0})
	put("far.cs", []float32{0, 1, 0})
	put("mid.cs", []float32{1, 1, 0})

	hits, err := s.SearchSimilar(ctx, "r1", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Path != "close.cs" || hits[1].Path != "mid.cs" {
		t.Fatalf("order = %s, %s", hits[0].Path, hits[1].Path)
	}
}

func TestStorePutReplacesSamePath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	fv := FileVector{RunID: "r1", Path: "a.cs", Content: "v1", Vector: []float32{1, 0, 0}}
	if err := s.Put(ctx, fv); err != nil {
		t.Fatal(err)
	}
	fv.Content = "v2"
	if err := s.Put(ctx, fv); err != nil {
		t.Fatal(err)
	}

	n, err := s.Count(ctx, "r1")
	if err != nil || n != 1 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
}

func TestStoreSearchIsolatesRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, FileVector{RunID: "r1", Path: "a.cs", Content: "x", Vector: []float32{1, 0, 0}})
	s.Put(ctx, FileVector{RunID: "r2", Path: "b.cs", Content: "y", Vector: []float32{1, 0, 0}})

	hits, err := s.SearchSimilar(ctx, "r2", []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Path != "b.cs" {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestIndexFilesSkipsTinyAndHugeFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ix := NewIndex(&fakeEmbedder{}, s, nil)

	files := map[string]repo.FileRecord{
		"ok.cs":   {Path: "ok.cs", Content: "public class Order {}"},
		"tiny.cs": {Path: "tiny.cs", Content: "x"},
	}
	// One oversized file.
	big := make([]byte, maxEmbedBytes+1)
	files["big.cs"] = repo.FileRecord{Path: "big.cs", Content: string(big)}

	ix.IndexFiles(ctx, "r1", files)

	n, err := s.Count(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("indexed = %d, want 1", n)
	}
}

func TestIndexBatchesLargeSets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ix := NewIndex(&fakeEmbedder{}, s, nil)

	files := make(map[string]repo.FileRecord)
	for i := 0; i < 25; i++ {
		path := fmt.Sprintf("f%02d.cs", i)
		files[path] = repo.FileRecord{Path: path, Content: "public class C {} // " + path}
	}
	ix.IndexFiles(ctx, "r1", files)

	n, _ := s.Count(ctx, "r1")
	if n != 25 {
		t.Fatalf("indexed = %d, want 25", n)
	}
}

func TestNilIndexIsNoop(t *testing.T) {
	ix := NewIndex(nil, nil, nil)
	ix.IndexFiles(context.Background(), "r1", nil)
	hits, err := ix.Search(context.Background(), "r1", "orders", 5)
	if err != nil || hits != nil {
		t.Fatalf("hits=%v err=%v", hits, err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors = %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors = %f", got)
	}
	if got := CosineSimilarity([]float32{1}, []float32{1, 0}); got != 0 {
		t.Fatalf("mismatched lengths = %f", got)
	}
}
