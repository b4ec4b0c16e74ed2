package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/ashutoshrp06/sow-assistant/internal/llm"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"go.uber.org/zap"
)

// NoSourcesAnswer is returned when retrieval finds nothing to ground on.
const NoSourcesAnswer = "I don't know. No relevant passages were found in the SOW documents."

// Generator answers a question from retrieved passages in one model call.
type Generator struct {
	searcher        Searcher
	model           llm.ChatModel
	topK            int
	counter         *llm.TokenCounter
	maxSourceTokens int
	logger          *zap.Logger
}

// GeneratorConfig holds the retrieval depth and source budget.
type GeneratorConfig struct {
	TopK            int
	MaxSourceTokens int
}

// NewGenerator creates a grounded answer generator. counter may be nil, in
// which case sources are never trimmed.
func NewGenerator(searcher Searcher, model llm.ChatModel, counter *llm.TokenCounter, cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Generator{
		searcher:        searcher,
		model:           model,
		topK:            cfg.TopK,
		counter:         counter,
		maxSourceTokens: cfg.MaxSourceTokens,
		logger:          logger,
	}
}

// Answer retrieves the top passages for query and asks the model to answer
// using only them.
func (g *Generator) Answer(ctx context.Context, query string) (string, error) {
	chunks, err := g.searcher.Search(ctx, query, g.topK)
	if err != nil {
		g.logger.Error("Retrieval failed",
			zap.Error(err),
			zap.String("query_preview", truncateString(query, 50)))
		var retErr *types.RetrievalError
		if errors.As(err, &retErr) {
			return "", err
		}
		return "", &types.RetrievalError{Op: "search", Err: err}
	}

	if len(chunks) == 0 {
		g.logger.Info("No sources found", zap.String("query_preview", truncateString(query, 50)))
		return NoSourcesAnswer, nil
	}

	if g.counter != nil {
		kept := g.counter.FitSources(chunks, g.maxSourceTokens)
		if len(kept) < len(chunks) {
			g.logger.Debug("Trimmed sources to token budget",
				zap.Int("retrieved", len(chunks)),
				zap.Int("kept", len(kept)))
		}
		chunks = kept
	}

	msg, err := g.model.Generate(ctx, llm.Request{
		Messages: []types.Message{
			types.NewSystemMessage(llm.GroundedSystemPrompt),
			types.NewUserMessage(llm.BuildGroundedPrompt(query, chunks)),
		},
	})
	if err != nil {
		var genErr *types.GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &types.GenerationError{Op: "grounded answer", Err: err}
	}

	g.logger.Info("Grounded answer generated",
		zap.Int("sources", len(chunks)),
		zap.Int("answer_len", len(msg.Content)))

	return strings.TrimSpace(msg.Content), nil
}
