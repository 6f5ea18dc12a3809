package document

import (
	"fmt"
)

// TiktokenSplitter splits text into windows of model tokens
type TiktokenSplitter struct {
	TokensPerChunk int
	ChunkOverlap   int
	tokenizer      *Tokenizer
}

func NewTiktokenSplitter(tokensPerChunk int, chunkOverlap int, model string) (*TiktokenSplitter, error) {
	if tokensPerChunk <= 0 {
		return nil, &SplitterError{
			Op:      "new_tiktoken_splitter",
			Message: "tokensPerChunk must be positive",
			Err:     fmt.Errorf("invalid tokensPerChunk: %d", tokensPerChunk),
		}
	}

	if chunkOverlap < 0 {
		return nil, &SplitterError{
			Op:      "new_tiktoken_splitter",
			Message: "chunkOverlap must be non-negative",
			Err:     fmt.Errorf("invalid chunkOverlap: %d", chunkOverlap),
		}
	}

	if chunkOverlap >= tokensPerChunk {
		return nil, &SplitterError{
			Op:      "new_tiktoken_splitter",
			Message: "chunkOverlap must be less than tokensPerChunk",
			Err:     fmt.Errorf("overlap %d >= chunk size %d", chunkOverlap, tokensPerChunk),
		}
	}

	tokenizer, err := NewTokenizer(model)
	if err != nil {
		return nil, err
	}

	return &TiktokenSplitter{
		TokensPerChunk: tokensPerChunk,
		ChunkOverlap:   chunkOverlap,
		tokenizer:      tokenizer,
	}, nil
}

func (ts *TiktokenSplitter) SplitText(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	enc := ts.tokenizer.encoding
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil, nil
	}

	var chunks []string
	step := ts.TokensPerChunk - ts.ChunkOverlap
	for start := 0; start < len(tokens); start += step {
		end := start + ts.TokensPerChunk
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, enc.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}
