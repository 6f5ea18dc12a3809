package chromem

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/Abraxas-365/papernotes/vectorstore"
	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

const storeName = "chromem"

// ChromemStore keeps chunk embeddings in an embedded chromem-go database.
// With an empty path the database lives only in memory.
type ChromemStore struct {
	db   *chromem.DB
	name string

	mu         sync.RWMutex
	collection *chromem.Collection
}

func NewChromemStore(path, collection string) (*ChromemStore, error) {
	if collection == "" {
		collection = vectorstore.DefaultCollection
	}

	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, vectorstore.NewInitFailedError(storeName, err)
		}
	}

	s := &ChromemStore{db: db, name: collection}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStore) open() error {
	c, err := s.db.GetOrCreateCollection(s.name, map[string]string{"hnsw:space": "cosine"}, noEmbedding)
	if err != nil {
		return vectorstore.NewInitFailedError(storeName, err)
	}
	s.mu.Lock()
	s.collection = c
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) coll() *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection
}

// noEmbedding refuses to embed; vectors always come from the configured embedder
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("chromem store expects precomputed embeddings")
}

func (s *ChromemStore) InitDB(_ context.Context, forceRecreate bool) error {
	if !forceRecreate {
		return nil
	}
	return s.reset()
}

func (s *ChromemStore) reset() error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return vectorstore.NewInitFailedError(storeName, err)
	}
	return s.open()
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []vectorstore.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return vectorstore.NewInvalidDimensionsError(storeName, len(docs), len(vectors))
	}

	cdocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		cdocs[i] = chromem.Document{
			ID:        uuid.NewString(),
			Metadata:  toStringMap(doc.Metadata),
			Embedding: vectors[i],
			Content:   doc.PageContent,
		}
	}

	if err := s.coll().AddDocuments(ctx, cdocs, runtime.NumCPU()); err != nil {
		return vectorstore.NewAddFailedError(storeName, err)
	}
	return nil
}

func (s *ChromemStore) SimilaritySearch(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	c := s.coll()
	count := c.Count()
	if count == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	results, err := c.QueryEmbedding(ctx, vector, limit, toStringMap(filter), nil)
	if err != nil {
		return nil, vectorstore.NewSearchFailedError(storeName, err)
	}

	docs := make([]vectorstore.Document, 0, len(results))
	for _, r := range results {
		md := make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			md[k] = v
		}
		docs = append(docs, vectorstore.Document{
			PageContent: r.Content,
			Metadata:    md,
			Score:       r.Similarity,
		})
	}
	return docs, nil
}

func (s *ChromemStore) Delete(ctx context.Context, filter vectorstore.Filter) error {
	if len(filter) == 0 {
		return s.reset()
	}
	if err := s.coll().Delete(ctx, toStringMap(filter), nil); err != nil {
		return vectorstore.NewDeleteFailedError(storeName, err)
	}
	return nil
}

// Count returns the number of stored chunks
func (s *ChromemStore) Count() int {
	return s.coll().Count()
}

// chromem-go metadata is string-valued
func toStringMap(m map[string]interface{}) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
