package document

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// EncodingForModel returns the tiktoken encoding name used by an OpenAI model
func EncodingForModel(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"):
		return "o200k_base"
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5-turbo"),
		strings.HasPrefix(model, "text-embedding-"):
		return "cl100k_base"
	case strings.HasPrefix(model, "code-"),
		model == "text-davinci-002",
		model == "text-davinci-003":
		return "p50k_base"
	}
	return "cl100k_base"
}

// Tokenizer counts and truncates text in model tokens
type Tokenizer struct {
	Model    string
	encoding *tiktoken.Tiktoken
}

// NewTokenizer loads the encoding for model. The first call may download the
// BPE ranks unless TIKTOKEN_CACHE_DIR points at a warm cache.
func NewTokenizer(model string) (*Tokenizer, error) {
	name := EncodingForModel(model)
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, &SplitterError{
			Op:      "new_tokenizer",
			Message: fmt.Sprintf("failed to get %s encoding for model %s", name, model),
			Err:     err,
		}
	}
	return &Tokenizer{Model: model, encoding: enc}, nil
}

// Count returns the number of tokens in text
func (t *Tokenizer) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// Truncate cuts text to at most maxTokens tokens
func (t *Tokenizer) Truncate(text string, maxTokens int) string {
	tokens := t.encoding.Encode(text, nil, nil)
	if maxTokens <= 0 || len(tokens) <= maxTokens {
		return text
	}
	return t.encoding.Decode(tokens[:maxTokens])
}
