package llm

import (
	"fmt"

	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates prompt sizes with the cl100k encoding used by gpt-4 class models.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter loads the cl100k_base encoding.
func NewTokenCounter() (*TokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &TokenCounter{codec: codec}, nil
}

// Count returns the number of tokens in s.
func (t *TokenCounter) Count(s string) int {
	ids, _, err := t.codec.Encode(s)
	if err != nil {
		// rough fallback: ~4 bytes per token
		return len(s) / 4
	}
	return len(ids)
}

// FitSources keeps the leading chunks whose formatted source lines fit in
// maxTokens. A non-positive budget keeps everything. The first chunk is
// always kept so a relevant source is never dropped entirely.
func (t *TokenCounter) FitSources(chunks []types.Chunk, maxTokens int) []types.Chunk {
	if maxTokens <= 0 || len(chunks) == 0 {
		return chunks
	}

	used := 0
	for i, c := range chunks {
		used += t.Count(FormatSources([]types.Chunk{c})) + 1
		if used > maxTokens && i > 0 {
			return chunks[:i]
		}
	}
	return chunks
}
