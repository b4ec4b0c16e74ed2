package rag

import (
	"fmt"

	"github.com/ashutoshrp06/sow-assistant/internal/config"
	"github.com/ashutoshrp06/sow-assistant/internal/llm"
	"go.uber.org/zap"
)

// NewRetrieverFromConfig builds the embedder for the configured provider and
// connects the Qdrant retriever.
func NewRetrieverFromConfig(cfg *config.Config, logger *zap.Logger) (*Retriever, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	embedder, err := NewEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	retriever, err := NewRetriever(RetrieverConfig{
		Host:       cfg.Search.Host,
		Port:       cfg.Search.Port,
		APIKey:     cfg.Search.APIKey,
		UseTLS:     cfg.Search.UseTLS,
		Collection: cfg.Search.Collection,
		VectorName: cfg.Search.VectorName,
		TitleField: cfg.Search.TitleField,
		ChunkField: cfg.Search.ChunkField,
		MinScore:   cfg.Search.MinScore,
		Timeout:    cfg.SearchTimeout(),
	}, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}
	return retriever, nil
}

// NewEmbedderFromConfig picks the embedding backend matching llm.provider.
func NewEmbedderFromConfig(cfg *config.Config) (Embedder, error) {
	if cfg.LLM.Provider == "ollama" {
		return NewOllamaEmbedder(cfg.LLM.Endpoint, cfg.LLM.EmbeddingModel), nil
	}

	client, err := llm.NewSDKClient(LLMConfig(cfg))
	if err != nil {
		return nil, err
	}
	return NewOpenAIEmbedder(client, cfg.LLM.EmbeddingModel), nil
}

// LLMConfig maps the llm section of the application config onto the model
// client configuration.
func LLMConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		Provider:    cfg.LLM.Provider,
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      cfg.LLM.APIKey,
		APIVersion:  cfg.LLM.APIVersion,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLMTimeout(),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		MaxRetries:  cfg.LLM.MaxRetries,
	}
}
