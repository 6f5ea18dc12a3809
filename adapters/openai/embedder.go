package openai

import (
	"context"
	"fmt"
	"sync"

	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/embedding"
	"github.com/sashabaranov/go-openai"
)

// maxEmbeddingTokens is the input limit of the OpenAI embedding models
const maxEmbeddingTokens = 8191

type OpenAIEmbedder struct {
	client  *openai.Client
	options *embedding.EmbeddingOptions

	tokenizerOnce sync.Once
	tokenizer     *document.Tokenizer
}

// DefaultOptions returns the default options for OpenAI embeddings
func DefaultOptions() *embedding.EmbeddingOptions {
	return &embedding.EmbeddingOptions{
		Model:     string(openai.AdaEmbeddingV2),
		BatchSize: 100,
		Normalize: false,
		Truncate:  true,
	}
}

// NewOpenAIEmbedder creates a new OpenAI embedder with the given API key and options
func NewOpenAIEmbedder(apiKey string, opts ...embedding.Option) *OpenAIEmbedder {
	return NewOpenAIEmbedderWithConfig(openai.DefaultConfig(apiKey), opts...)
}

// NewOpenAIEmbedderWithConfig allows a custom base URL or HTTP client
func NewOpenAIEmbedderWithConfig(config openai.ClientConfig, opts ...embedding.Option) *OpenAIEmbedder {
	options := embedding.Apply(*DefaultOptions(), opts...)

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(config),
		options: options,
	}
}

// EmbedDocuments implements the Embedder interface
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, embedding.ErrEmptyInput("EmbedDocuments")
	}

	var all [][]float32
	err := embedding.Batches(len(documents), e.options.BatchSize, func(start, end int) error {
		vectors, err := e.embed(ctx, "EmbedDocuments", documents[start:end])
		if err != nil {
			return fmt.Errorf("error processing batch starting at %d: %w", start, err)
		}
		all = append(all, vectors...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return all, nil
}

// EmbedQuery implements the Embedder interface
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyInput("EmbedQuery")
	}

	vectors, err := e.embed(ctx, "EmbedQuery", []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) embed(ctx context.Context, op string, texts []string) ([][]float32, error) {
	input := texts
	if e.options.Truncate {
		input = e.truncate(texts)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(e.options.Model),
	})
	if err != nil {
		return nil, e.handleError(op, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, embedding.NewEmbeddingError(op, nil, embedding.ErrCodeAPIError,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, embedding.NewEmbeddingError(op, nil, embedding.ErrCodeAPIError,
				fmt.Sprintf("embedding index %d out of range", item.Index))
		}
		vectors[item.Index] = item.Embedding
		if e.options.Normalize {
			embedding.Normalize(vectors[item.Index])
		}
	}

	return vectors, nil
}

// truncate cuts texts that exceed the model input limit. When the encoding
// cannot be loaded the texts are sent as they are.
func (e *OpenAIEmbedder) truncate(texts []string) []string {
	e.tokenizerOnce.Do(func() {
		tok, err := document.NewTokenizer(e.options.Model)
		if err == nil {
			e.tokenizer = tok
		}
	})
	if e.tokenizer == nil {
		return texts
	}

	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = e.tokenizer.Truncate(t, maxEmbeddingTokens)
	}
	return out
}

// handleError converts OpenAI API errors to embedding errors
func (e *OpenAIEmbedder) handleError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch apiErr := err.(type) {
	case *openai.APIError:
		switch apiErr.HTTPStatusCode {
		case 400:
			return embedding.ErrInvalidInput(op, err, apiErr.Message)
		case 401:
			return embedding.NewEmbeddingError(op, err, "Unauthorized", "invalid API key")
		case 429:
			return embedding.ErrRateLimitExceeded(op, err)
		case 500:
			return embedding.NewEmbeddingError(op, err, embedding.ErrCodeModelNotAvailable,
				"OpenAI API server error")
		default:
			return embedding.NewEmbeddingError(op, err, embedding.ErrCodeAPIError,
				fmt.Sprintf("OpenAI API error: %s", apiErr.Message))
		}
	default:
		return embedding.NewEmbeddingError(op, err, embedding.ErrCodeInternal,
			"unexpected error")
	}
}
