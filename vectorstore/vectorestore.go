package vectorstore

import (
	"context"

	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/embedding"
)

// DefaultCollection is the table/collection that holds paper chunk embeddings
const DefaultCollection = "arxiv_embeddings"

// Filter represents a metadata equality filter
type Filter map[string]interface{}

// Document is a stored chunk with its similarity score
type Document struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata"`
	Score       float32                `json:"score"`
}

// ToDocument converts a vectorstore.Document to document.Document
func (d Document) ToDocument() document.Document {
	return document.Document{
		PageContent: d.PageContent,
		Metadata:    d.Metadata,
	}
}

// FromDocument creates a vectorstore.Document from document.Document
func FromDocument(doc document.Document) Document {
	return Document{
		PageContent: doc.PageContent,
		Metadata:    doc.Metadata,
	}
}

// Store interface defines the operations that any vector database adapter must implement
type Store interface {
	// InitDB creates the backing table or collection
	InitDB(ctx context.Context, forceRecreate bool) error

	// AddDocuments adds documents to the vector store
	AddDocuments(ctx context.Context, docs []Document, vectors [][]float32) error

	// SimilaritySearch performs a similarity search using the provided vector
	SimilaritySearch(ctx context.Context, vector []float32, limit int, filter Filter) ([]Document, error)

	// Delete removes documents matching filter from the store
	Delete(ctx context.Context, filter Filter) error
}

// VectorStore is the main struct that combines the database adapter and embedder
type VectorStore struct {
	store    Store
	embedder embedding.Embedder
	opts     *Options
}

// New creates a new VectorStore instance
func New(store Store, embedder embedding.Embedder, opts ...Option) *VectorStore {
	options := &Options{
		ScoreThreshold: 0.0,
	}

	for _, opt := range opts {
		opt(options)
	}

	return &VectorStore{
		store:    store,
		embedder: embedder,
		opts:     options,
	}
}

// InitStore prepares the underlying store
func (vs *VectorStore) InitStore(ctx context.Context, forceRecreate bool) error {
	return vs.store.InitDB(ctx, forceRecreate)
}

// Upsert replaces every chunk stored for source with docs. The embeddings are
// computed before anything is deleted, so an embedding failure leaves the
// previous chunks in place.
func (vs *VectorStore) Upsert(ctx context.Context, source string, docs []document.Document) error {
	docs = document.WithSource(docs, source)
	if len(docs) == 0 {
		return vs.store.Delete(ctx, Filter{document.MetaSource: source})
	}

	vsDocs, vectors, err := vs.embed(ctx, docs)
	if err != nil {
		return err
	}

	if err := vs.store.Delete(ctx, Filter{document.MetaSource: source}); err != nil {
		return err
	}
	return vs.store.AddDocuments(ctx, vsDocs, vectors)
}

func (vs *VectorStore) embed(ctx context.Context, docs []document.Document) ([]Document, [][]float32, error) {
	texts := make([]string, len(docs))
	vsDocs := make([]Document, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
		vsDocs[i] = FromDocument(doc)
	}

	vectors, err := vs.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, nil, NewEmbeddingFailedError("vectorstore", err)
	}
	if len(vectors) != len(docs) {
		return nil, nil, NewInvalidDimensionsError("vectorstore", len(docs), len(vectors))
	}
	return vsDocs, vectors, nil
}

// SimilaritySearch performs a similarity search using the query text
func (vs *VectorStore) SimilaritySearch(ctx context.Context, query string, limit int, filter Filter) ([]Document, error) {
	vector, err := vs.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, NewEmbeddingFailedError("vectorstore", err)
	}

	mergedFilter := make(Filter)
	for k, v := range vs.opts.Filters {
		mergedFilter[k] = v
	}
	for k, v := range filter {
		mergedFilter[k] = v
	}

	vsDocs, err := vs.store.SimilaritySearch(ctx, vector, limit, mergedFilter)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(vsDocs))
	for _, vsDoc := range vsDocs {
		if vs.opts.ScoreThreshold <= 0 || vsDoc.Score >= vs.opts.ScoreThreshold {
			docs = append(docs, vsDoc)
		}
	}

	return docs, nil
}

// Delete removes documents from the store
func (vs *VectorStore) Delete(ctx context.Context, filter Filter) error {
	return vs.store.Delete(ctx, filter)
}
