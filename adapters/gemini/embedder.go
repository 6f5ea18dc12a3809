package gemini

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/papernotes/embedding"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini embedding model used when none is configured
const DefaultModel = "text-embedding-004"

// maxBatch is the per-request limit of BatchEmbedContents
const maxBatch = 100

// embedClient is the part of the Gemini API the embedder calls. Documents and
// queries are embedded with different task types.
type embedClient interface {
	BatchEmbed(ctx context.Context, task genai.TaskType, texts []string) ([][]float32, error)
	Embed(ctx context.Context, task genai.TaskType, text string) ([]float32, error)
	Close() error
}

// GeminiEmbedder embeds text with the Gemini API
type GeminiEmbedder struct {
	client  embedClient
	options *embedding.EmbeddingOptions
}

func NewGeminiEmbedder(ctx context.Context, apiKey string, opts ...embedding.Option) (*GeminiEmbedder, error) {
	options := embedding.Apply(embedding.EmbeddingOptions{Model: DefaultModel, BatchSize: maxBatch}, opts...)

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, embedding.NewEmbeddingError("NewGeminiEmbedder", err, embedding.ErrCodeInternal, "failed to create gemini client")
	}

	return newEmbedder(&genaiClient{client: client, model: options.Model}, options), nil
}

func newEmbedder(client embedClient, options *embedding.EmbeddingOptions) *GeminiEmbedder {
	if options.BatchSize <= 0 || options.BatchSize > maxBatch {
		options.BatchSize = maxBatch
	}
	return &GeminiEmbedder{client: client, options: options}
}

func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, embedding.ErrEmptyInput("EmbedDocuments")
	}

	var all [][]float32
	err := embedding.Batches(len(documents), e.options.BatchSize, func(start, end int) error {
		vectors, err := e.client.BatchEmbed(ctx, genai.TaskTypeRetrievalDocument, documents[start:end])
		if err != nil {
			return embedding.NewEmbeddingError("EmbedDocuments", err, embedding.ErrCodeAPIError, "gemini batch embed failed")
		}
		if len(vectors) != end-start {
			return embedding.NewEmbeddingError("EmbedDocuments", nil, embedding.ErrCodeAPIError,
				fmt.Sprintf("expected %d embeddings, got %d", end-start, len(vectors)))
		}
		for _, v := range vectors {
			all = append(all, e.vector(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyInput("EmbedQuery")
	}

	v, err := e.client.Embed(ctx, genai.TaskTypeRetrievalQuery, text)
	if err != nil {
		return nil, embedding.NewEmbeddingError("EmbedQuery", err, embedding.ErrCodeAPIError, "gemini embed failed")
	}
	if len(v) == 0 {
		return nil, embedding.NewEmbeddingError("EmbedQuery", nil, embedding.ErrCodeAPIError, "empty embedding response")
	}
	return e.vector(v), nil
}

// Close releases the underlying client
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}

func (e *GeminiEmbedder) vector(values []float32) []float32 {
	out := make([]float32, len(values))
	copy(out, values)
	if e.options.Normalize {
		embedding.Normalize(out)
	}
	return out
}

// genaiClient calls the Gemini API through the generative-ai-go client
type genaiClient struct {
	client *genai.Client
	model  string
}

func (g *genaiClient) embeddingModel(task genai.TaskType) *genai.EmbeddingModel {
	m := g.client.EmbeddingModel(g.model)
	m.TaskType = task
	return m
}

func (g *genaiClient) BatchEmbed(ctx context.Context, task genai.TaskType, texts []string) ([][]float32, error) {
	model := g.embeddingModel(task)
	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

func (g *genaiClient) Embed(ctx context.Context, task genai.TaskType, text string) ([]float32, error) {
	resp, err := g.embeddingModel(task).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, nil
	}
	return resp.Embedding.Values, nil
}

func (g *genaiClient) Close() error {
	return g.client.Close()
}
