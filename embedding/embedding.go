package embedding

import (
	"context"
	"math"
)

// Embedder turns chunk texts into vectors. EmbedDocuments returns one vector
// per input, in input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Normalize scales vector to unit length in place. A zero vector is left as is.
func Normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	scale := float32(1 / math.Sqrt(sum))
	for i := range vector {
		vector[i] *= scale
	}
}

// Batches calls fn for consecutive slices of at most size items
func Batches(n, size int, fn func(start, end int) error) error {
	if size <= 0 {
		size = n
	}
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
