package vectorstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/papernotes/adapters/inmemory"
	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/vectorstore"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, docs []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(docs))
	for i, d := range docs {
		out[i] = []float32{float32(len(d)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func chunks(texts ...string) []document.Document {
	out := make([]document.Document, len(texts))
	for i, t := range texts {
		out[i] = document.Document{PageContent: t, Metadata: map[string]interface{}{document.MetaPageNumber: i + 1}}
	}
	return out
}

func TestVectorStore_UpsertReplacesSource(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewVectorStore()
	vs := vectorstore.New(store, &fakeEmbedder{})

	if err := vs.Upsert(ctx, "a.pdf", chunks("one", "two", "three")); err != nil {
		t.Fatal(err)
	}
	if err := vs.Upsert(ctx, "b.pdf", chunks("other")); err != nil {
		t.Fatal(err)
	}
	if err := vs.Upsert(ctx, "a.pdf", chunks("new one", "new two")); err != nil {
		t.Fatal(err)
	}

	if store.Len() != 3 {
		t.Fatalf("stored %d vectors, want 3", store.Len())
	}

	res, err := store.SimilaritySearch(ctx, []float32{1, 1}, 10, vectorstore.Filter{document.MetaSource: "a.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("a.pdf has %d chunks, want 2", len(res))
	}
	for _, d := range res {
		if d.PageContent != "new one" && d.PageContent != "new two" {
			t.Errorf("stale chunk %q", d.PageContent)
		}
	}
}

func TestVectorStore_UpsertEmbeddingFailureKeepsOldChunks(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewVectorStore()
	emb := &fakeEmbedder{}
	vs := vectorstore.New(store, emb)

	if err := vs.Upsert(ctx, "a.pdf", chunks("one")); err != nil {
		t.Fatal(err)
	}

	emb.err = errors.New("quota")
	err := vs.Upsert(ctx, "a.pdf", chunks("two"))
	var vse *vectorstore.VectorStoreError
	if !errors.As(err, &vse) || vse.Code != vectorstore.ErrCodeEmbeddingFailed {
		t.Fatalf("Upsert() error = %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("old chunk removed after failed embedding")
	}
}

func TestVectorStore_SimilaritySearchThreshold(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewVectorStore()
	if err := store.AddDocuments(ctx,
		[]vectorstore.Document{{PageContent: "near"}, {PageContent: "far"}},
		[][]float32{{4, 1}, {-4, 1}},
	); err != nil {
		t.Fatal(err)
	}

	vs := vectorstore.New(store, &fakeEmbedder{}, vectorstore.WithScoreThreshold(0.5))
	res, err := vs.SimilaritySearch(ctx, "abcd", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].PageContent != "near" {
		t.Errorf("SimilaritySearch() = %+v", res)
	}
}
