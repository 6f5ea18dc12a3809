package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/papernotes/embedding"
)

func TestOllamaEmbedder_EmbedDocuments(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		requests++
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "all-minilm" {
			t.Errorf("model = %q", req.Model)
		}
		out := make([][]float32, len(req.Input))
		for i, in := range req.Input {
			out[i] = []float32{float32(len(in))}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": out})
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(srv.URL, embedding.WithModel("all-minilm"), embedding.WithBatchSize(2))
	if err != nil {
		t.Fatal(err)
	}

	vectors, err := e.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
	if len(vectors) != 3 || vectors[2][0] != 3 {
		t.Errorf("vectors = %v", vectors)
	}

	q, err := e.EmbedQuery(context.Background(), "four")
	if err != nil || q[0] != 4 {
		t.Errorf("EmbedQuery() = %v, %v", q, err)
	}
}

func TestOllamaEmbedder_EmptyInput(t *testing.T) {
	e, err := NewOllamaEmbedder("http://localhost:11434")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.EmbedDocuments(context.Background(), nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := e.EmbedQuery(context.Background(), ""); err == nil {
		t.Error("expected error for empty query")
	}
}
