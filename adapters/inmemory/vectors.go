package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Abraxas-365/papernotes/vectorstore"
)

type storedVector struct {
	doc    vectorstore.Document
	vector []float32
}

var _ vectorstore.Store = (*VectorStore)(nil)

// VectorStore implements vectorstore.Store with a brute-force cosine search
type VectorStore struct {
	mu      sync.RWMutex
	records []storedVector
}

func NewVectorStore() *VectorStore {
	return &VectorStore{}
}

func (s *VectorStore) InitDB(_ context.Context, forceRecreate bool) error {
	if forceRecreate {
		s.mu.Lock()
		s.records = nil
		s.mu.Unlock()
	}
	return nil
}

func (s *VectorStore) AddDocuments(ctx context.Context, docs []vectorstore.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return vectorstore.NewInvalidDimensionsError("inmemory", len(docs), len(vectors))
	}
	if err := ctx.Err(); err != nil {
		return vectorstore.NewAddFailedError("inmemory", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range docs {
		md := make(map[string]interface{}, len(doc.Metadata))
		for k, v := range doc.Metadata {
			md[k] = v
		}
		s.records = append(s.records, storedVector{
			doc:    vectorstore.Document{PageContent: doc.PageContent, Metadata: md},
			vector: append([]float32(nil), vectors[i]...),
		})
	}
	return nil
}

func (s *VectorStore) SimilaritySearch(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, vectorstore.NewSearchFailedError("inmemory", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []vectorstore.Document
	for _, r := range s.records {
		if !matches(r.doc.Metadata, filter) {
			continue
		}
		doc := r.doc
		doc.Score = cosine(vector, r.vector)
		out = append(out, doc)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *VectorStore) Delete(ctx context.Context, filter vectorstore.Filter) error {
	if err := ctx.Err(); err != nil {
		return vectorstore.NewDeleteFailedError("inmemory", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if !matches(r.doc.Metadata, filter) {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

// Len returns the number of stored vectors
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matches(metadata map[string]interface{}, filter vectorstore.Filter) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
