// Package localpdf extracts page text without leaving the process.
package localpdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/paper"
	"github.com/ledongthuc/pdf"
)

// Extractor reads the text layer of every page and splits it into chunks
type Extractor struct {
	splitter document.Splitter
}

// NewExtractor uses a character splitter when splitter is nil
func NewExtractor(splitter document.Splitter) *Extractor {
	if splitter == nil {
		splitter = document.NewCharacterSplitter(2000, 200, "\n")
	}
	return &Extractor{splitter: splitter}
}

func (e *Extractor) Extract(ctx context.Context, data []byte) ([]document.Document, error) {
	const op = "localpdf.Extract"

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "failed to open PDF", err)
	}

	var pages []document.Document
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, paper.NewError(paper.KindExtraction, op, "extraction cancelled", err)
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, paper.NewError(paper.KindExtraction, op, fmt.Sprintf("failed to read page %d", i), err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, document.Document{
			PageContent: text,
			Metadata: map[string]interface{}{
				document.MetaPageNumber: i,
				document.MetaCategory:   "Page",
			},
		})
	}

	chunks, err := document.SplitDocuments(e.splitter, pages)
	if err != nil {
		return nil, paper.NewError(paper.KindExtraction, op, "failed to split pages", err)
	}
	return chunks, nil
}
