package document

// Splitter interface defines methods for splitting text into chunks
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// SplitDocuments splits every document and copies its metadata onto each piece.
// Pieces keep the order of their parent documents.
func SplitDocuments(splitter Splitter, documents []Document) ([]Document, error) {
	var out []Document

	for _, doc := range documents {
		chunks, err := splitter.SplitText(doc.PageContent)
		if err != nil {
			return nil, &SplitterError{
				Op:      "split_documents",
				Message: "failed to split document text",
				Err:     err,
			}
		}

		for _, chunk := range chunks {
			out = append(out, Document{
				PageContent: chunk,
				Metadata:    copyMetadata(doc.Metadata),
			})
		}
	}

	return out, nil
}

func copyMetadata(metadata map[string]interface{}) map[string]interface{} {
	copy := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		copy[k] = v
	}
	return copy
}
