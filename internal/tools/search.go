package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashutoshrp06/sow-assistant/internal/rag"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
)

const (
	// NoDocumentsFound is returned when the search has no matches.
	NoDocumentsFound = "No documents found"

	// snippetLength caps each result at this many characters.
	snippetLength = 300

	defaultSearchTopK = 3
)

// SearchTool queries the SOW index and summarizes each hit.
type SearchTool struct {
	searcher rag.Searcher
	topK     int
}

// NewSearchTool creates the search tool. topK <= 0 uses 3.
func NewSearchTool(searcher rag.Searcher, topK int) *SearchTool {
	if topK <= 0 {
		topK = defaultSearchTopK
	}
	return &SearchTool{searcher: searcher, topK: topK}
}

func (t *SearchTool) Name() string { return "search_tool" }

func (t *SearchTool) Description() string { return "Search SOW documents" }

func (t *SearchTool) Parameters() []types.ParameterDefinition {
	return []types.ParameterDefinition{
		{
			Name:        "query",
			Type:        "string",
			Description: "What to look for in the SOW documents",
			Required:    true,
		},
	}
}

// Execute returns one "title: snippet" line per result.
func (t *SearchTool) Execute(ctx context.Context, params map[string]string) (string, error) {
	chunks, err := t.searcher.Search(ctx, params["query"], t.topK)
	if err != nil {
		return "", fmt.Errorf("could not search documents: %w", err)
	}
	return FormatResults(chunks), nil
}

// FormatResults renders search hits for the model.
func FormatResults(chunks []types.Chunk) string {
	if len(chunks) == 0 {
		return NoDocumentsFound
	}

	lines := make([]string, 0, len(chunks))
	for _, c := range chunks {
		lines = append(lines, fmt.Sprintf("%s: %s", c.Title, truncateRunes(c.Chunk, snippetLength)))
	}
	return strings.Join(lines, "\n")
}

// truncateRunes keeps the first n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
