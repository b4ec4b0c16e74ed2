package main

import (
	"fmt"

	"github.com/ashutoshrp06/sow-assistant/internal/agent"
	"github.com/ashutoshrp06/sow-assistant/internal/config"
	"github.com/ashutoshrp06/sow-assistant/internal/dispatcher"
	"github.com/ashutoshrp06/sow-assistant/internal/llm"
	"github.com/ashutoshrp06/sow-assistant/internal/rag"
	"github.com/ashutoshrp06/sow-assistant/internal/tools"
	"go.uber.org/zap"
)

// app holds the wired components for one process.
type app struct {
	cfg        *config.Config
	dispatcher *dispatcher.Dispatcher
	registry   *tools.Registry
	closer     func() error
}

// buildApp connects to the model and search endpoints named in cfg.
func buildApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	model, err := llm.New(rag.LLMConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	retriever, err := rag.NewRetrieverFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	a, err := assemble(cfg, model, retriever, logger)
	if err != nil {
		_ = retriever.Close()
		return nil, err
	}
	a.closer = retriever.Close
	return a, nil
}

// assemble wires the generator, tools, agent and dispatcher around an
// existing model and searcher.
func assemble(cfg *config.Config, model llm.ChatModel, searcher rag.Searcher, logger *zap.Logger) (*app, error) {
	counter, err := llm.NewTokenCounter()
	if err != nil {
		logger.Warn("Token counter unavailable, sources will not be trimmed", zap.Error(err))
		counter = nil
	}

	generator := rag.NewGenerator(searcher, model, counter, rag.GeneratorConfig{
		TopK:            cfg.RAG.TopK,
		MaxSourceTokens: cfg.RAG.MaxSourceTokens,
	}, logger)

	assessor, err := tools.NewRiskAssessor(cfg.Agent.RiskStrategy, model, cfg.LLM.RiskTemperature)
	if err != nil {
		return nil, err
	}

	registry, err := tools.NewRegistry(
		tools.NewSearchTool(searcher, cfg.RAG.ToolTopK),
		tools.NewRiskCheckTool(assessor),
	)
	if err != nil {
		return nil, err
	}

	contractAgent := agent.New(model, registry, agent.Config{
		MaxTurns:     cfg.Agent.MaxTurns,
		SystemPrompt: llm.AgentSystemPrompt,
		Logger:       logger,
	})

	d := dispatcher.New(generator, contractAgent, dispatcher.Config{
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         logger,
	})

	return &app{
		cfg:        cfg,
		dispatcher: d,
		registry:   registry,
		closer:     func() error { return nil },
	}, nil
}

// Close releases the search connection.
func (a *app) Close() error {
	return a.closer()
}
