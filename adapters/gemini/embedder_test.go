package gemini

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Abraxas-365/papernotes/embedding"
	"github.com/google/generative-ai-go/genai"
)

type fakeClient struct {
	batches [][]string
	tasks   []genai.TaskType
	short   bool
	err     error
	closed  bool
}

func (f *fakeClient) BatchEmbed(_ context.Context, task genai.TaskType, texts []string) ([][]float32, error) {
	f.tasks = append(f.tasks, task)
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 0}
	}
	return out, nil
}

func (f *fakeClient) Embed(_ context.Context, task genai.TaskType, text string) ([]float32, error) {
	f.tasks = append(f.tasks, task)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{3, 4}, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestGeminiEmbedder_TaskTypes(t *testing.T) {
	client := &fakeClient{}
	e := newEmbedder(client, embedding.Apply(embedding.EmbeddingOptions{Model: DefaultModel}, embedding.WithBatchSize(2)))

	vectors, err := e.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	if len(client.batches) != 2 || len(client.batches[1]) != 1 || client.batches[1][0] != "ccc" {
		t.Errorf("batches = %v", client.batches)
	}
	if len(vectors) != 3 || vectors[2][0] != 3 {
		t.Errorf("vectors = %v", vectors)
	}

	if _, err := e.EmbedQuery(context.Background(), "query"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}

	want := []genai.TaskType{genai.TaskTypeRetrievalDocument, genai.TaskTypeRetrievalDocument, genai.TaskTypeRetrievalQuery}
	if len(client.tasks) != len(want) {
		t.Fatalf("tasks = %v", client.tasks)
	}
	for i := range want {
		if client.tasks[i] != want[i] {
			t.Errorf("task %d = %v, want %v", i, client.tasks[i], want[i])
		}
	}

	if err := e.Close(); err != nil || !client.closed {
		t.Errorf("Close() = %v, closed = %v", err, client.closed)
	}
}

func TestGeminiEmbedder_Normalize(t *testing.T) {
	e := newEmbedder(&fakeClient{}, embedding.Apply(embedding.EmbeddingOptions{}, embedding.WithNormalization(true)))

	v, err := e.EmbedQuery(context.Background(), "query")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("EmbedQuery() = %v, want unit vector", v)
	}
}

func TestGeminiEmbedder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
		docs   []string
		code   string
	}{
		{"empty input", &fakeClient{}, nil, embedding.ErrCodeEmptyInput},
		{"api failure", &fakeClient{err: errors.New("quota")}, []string{"a"}, embedding.ErrCodeAPIError},
		{"missing embeddings", &fakeClient{short: true}, []string{"a", "b"}, embedding.ErrCodeAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEmbedder(tt.client, embedding.Apply(embedding.EmbeddingOptions{}))
			_, err := e.EmbedDocuments(context.Background(), tt.docs)
			var ee *embedding.EmbeddingError
			if !errors.As(err, &ee) || ee.Code != tt.code {
				t.Errorf("EmbedDocuments() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestNewEmbedder_ClampsBatchSize(t *testing.T) {
	for _, size := range []int{0, -1, 500} {
		e := newEmbedder(&fakeClient{}, embedding.Apply(embedding.EmbeddingOptions{}, embedding.WithBatchSize(size)))
		if e.options.BatchSize != maxBatch {
			t.Errorf("batch size %d clamped to %d, want %d", size, e.options.BatchSize, maxBatch)
		}
	}
}
