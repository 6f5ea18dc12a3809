// Package extractor turns PDF bytes into ordered text chunks.
package extractor

import (
	"context"

	"github.com/Abraxas-365/papernotes/document"
)

// Extractor partitions a PDF into chunks in document order. Chunk metadata
// carries at least the page number when the backend reports it.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) ([]document.Document, error)
}

// ExtractorFunc adapts a function to the Extractor interface
type ExtractorFunc func(ctx context.Context, pdf []byte) ([]document.Document, error)

func (f ExtractorFunc) Extract(ctx context.Context, pdf []byte) ([]document.Document, error) {
	return f(ctx, pdf)
}
