package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Abraxas-365/papernotes/embedding"
	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// DefaultModel is used when no embedding model is configured
const DefaultModel = "nomic-embed-text"

// OllamaEmbedder generates embeddings with a local Ollama server
type OllamaEmbedder struct {
	client  *api.Client
	options *embedding.EmbeddingOptions
}

// NewOllamaEmbedder creates an embedder for host. An empty host falls back to OLLAMA_HOST.
func NewOllamaEmbedder(host string, opts ...embedding.Option) (*OllamaEmbedder, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, embedding.ErrInvalidInput("NewOllamaEmbedder", err, "invalid ollama host "+host)
		}
		hostURL = u
	}

	options := embedding.Apply(embedding.EmbeddingOptions{
		Model:     DefaultModel,
		BatchSize: 32,
		Truncate:  true,
	}, opts...)

	return &OllamaEmbedder{
		client:  api.NewClient(hostURL, http.DefaultClient),
		options: options,
	}, nil
}

func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, embedding.ErrEmptyInput("EmbedDocuments")
	}

	var all [][]float32
	err := embedding.Batches(len(documents), e.options.BatchSize, func(start, end int) error {
		vectors, err := e.embed(ctx, "EmbedDocuments", documents[start:end])
		if err != nil {
			return err
		}
		all = append(all, vectors...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyInput("EmbedQuery")
	}
	vectors, err := e.embed(ctx, "EmbedQuery", []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, op string, texts []string) ([][]float32, error) {
	truncate := e.options.Truncate
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model:    e.options.Model,
		Input:    texts,
		Truncate: &truncate,
	})
	if err != nil {
		return nil, embedding.NewEmbeddingError(op, err, embedding.ErrCodeAPIError, "ollama embed request failed")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, embedding.NewEmbeddingError(op, nil, embedding.ErrCodeAPIError,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)))
	}
	if e.options.Normalize {
		for _, v := range resp.Embeddings {
			embedding.Normalize(v)
		}
	}
	return resp.Embeddings, nil
}
