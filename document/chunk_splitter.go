package document

import "strings"

// CharacterSplitter packs separator-delimited parts into chunks of at most
// ChunkSize bytes, carrying ChunkOverlap trailing bytes into the next chunk.
type CharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

func NewCharacterSplitter(chunkSize int, chunkOverlap int, separator string) *CharacterSplitter {
	if separator == "" {
		separator = " "
	}

	return &CharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separator:    separator,
	}
}

func (cs *CharacterSplitter) SplitText(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts := strings.Split(text, cs.Separator)
	var chunks []string
	current := strings.Builder{}

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		overlap := ""
		if cs.ChunkOverlap > 0 {
			overlap = current.String()
			if len(overlap) > cs.ChunkOverlap {
				overlap = overlap[len(overlap)-cs.ChunkOverlap:]
			}
		}
		current.Reset()
		current.WriteString(overlap)
	}

	for _, part := range parts {
		if current.Len() > 0 && current.Len()+len(cs.Separator)+len(part) > cs.ChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(cs.Separator)
		}
		current.WriteString(part)
	}

	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}
