package document

import (
	"encoding/json"
	"strings"
)

// Metadata keys set by the extractors
const (
	MetaPageNumber = "page_number"
	MetaSource     = "source"
	MetaElementID  = "element_id"
	MetaCategory   = "category"
)

// Document represents a text chunk with metadata
type Document struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// FormatAsString joins the chunk texts with newlines, preserving order
func FormatAsString(docs []Document) string {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	return strings.Join(texts, "\n")
}

// PageNumbers returns the page number(s) stored in the chunk metadata.
// The value may be a single number or a list depending on the extractor.
func PageNumbers(doc Document) []int {
	if doc.Metadata == nil {
		return nil
	}
	return toInts(doc.Metadata[MetaPageNumber])
}

func toInts(v interface{}) []int {
	switch n := v.(type) {
	case int:
		return []int{n}
	case int32:
		return []int{int(n)}
	case int64:
		return []int{int(n)}
	case float64:
		return []int{int(n)}
	case float32:
		return []int{int(n)}
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil
		}
		return []int{int(i)}
	case []int:
		return append([]int(nil), n...)
	case []interface{}:
		var out []int
		for _, item := range n {
			out = append(out, toInts(item)...)
		}
		return out
	default:
		return nil
	}
}

// WithSource returns copies of docs with the source metadata key set
func WithSource(docs []Document, source string) []Document {
	out := make([]Document, len(docs))
	for i, doc := range docs {
		md := copyMetadata(doc.Metadata)
		md[MetaSource] = source
		out[i] = Document{PageContent: doc.PageContent, Metadata: md}
	}
	return out
}
