// Package llm talks to the language-model endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"go.uber.org/zap"
)

// ChatModel is the language-model endpoint contract. The returned message is
// an assistant message that either carries text or one or more tool calls.
type ChatModel interface {
	Generate(ctx context.Context, req Request) (*types.Message, error)
}

// Request is one model invocation.
type Request struct {
	Messages []types.Message
	Tools    []types.ToolDefinition
	// Temperature overrides the client default when set.
	Temperature *float64
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

// Config holds client configuration.
type Config struct {
	Provider    string
	Endpoint    string
	APIKey      string
	APIVersion  string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

// New builds the configured provider wrapped with retries.
func New(cfg Config, logger *zap.Logger) (ChatModel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var model ChatModel
	switch cfg.Provider {
	case "azure", "openai":
		c, err := NewOpenAIClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		model = c
	case "ollama":
		model = NewOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return WithRetry(model, cfg.MaxRetries, logger), nil
}

// OpenAIClient calls the chat completions API of OpenAI or Azure OpenAI.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewOpenAIClient creates a chat client. For Azure the model is the deployment name.
func NewOpenAIClient(cfg Config, logger *zap.Logger) (*OpenAIClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := NewSDKClient(cfg)
	if err != nil {
		return nil, err
	}
	return newOpenAIClient(client, cfg, logger), nil
}

// NewSDKClient builds an openai-go client for OpenAI or Azure OpenAI. It is
// shared by chat completions and query embeddings.
func NewSDKClient(cfg Config) (openai.Client, error) {
	if cfg.APIKey == "" {
		return openai.Client{}, errors.New("llm api key is not set")
	}

	// Retries are handled by WithRetry.
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.Provider == "azure" {
		if cfg.Endpoint == "" {
			return openai.Client{}, errors.New("azure endpoint is not set")
		}
		opts = append(opts,
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	} else {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(cfg.Endpoint))
		}
	}
	return openai.NewClient(opts...), nil
}

func newOpenAIClient(client openai.Client, cfg Config, logger *zap.Logger) *OpenAIClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAIClient{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Generate sends the conversation and bound tools to the model.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (*types.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = toOpenAITools(req.Tools)
	}

	temp := c.temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	params.Temperature = openai.Float(temp)
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &types.GenerationError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &types.GenerationError{Op: "chat completion", Err: errors.New("no choices returned")}
	}

	c.logger.Debug("Chat completion finished",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)))

	rMsg := resp.Choices[0].Message
	msg := &types.Message{
		Role:    types.RoleAssistant,
		Content: rMsg.Content,
	}
	if len(rMsg.ToolCalls) > 0 {
		msg.ToolCalls = make([]types.ToolCall, len(rMsg.ToolCalls))
		for i, tc := range rMsg.ToolCalls {
			msg.ToolCalls[i] = types.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
		}
	}
	return msg, nil
}

// ModelInfo returns a display string for the configured model.
func (c *OpenAIClient) ModelInfo() string {
	return c.model
}

func toOpenAIMessages(msgs []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case types.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case types.RoleAssistant:
			aMsg := openai.AssistantMessage(m.Content)
			if len(m.ToolCalls) > 0 {
				aMsg.OfAssistant.ToolCalls = make([]openai.ChatCompletionMessageToolCallUnionParam, len(m.ToolCalls))
				for i, tc := range m.ToolCalls {
					aMsg.OfAssistant.ToolCalls[i] = openai.ChatCompletionMessageToolCallUnionParam{
						OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
							ID: tc.ID,
							Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
								Name:      tc.Name,
								Arguments: tc.Arguments,
							},
							Type: "function",
						},
					}
				}
			}
			out = append(out, aMsg)
		case types.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func toOpenAITools(defs []types.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        d.Name,
					Description: openai.String(d.Description),
					Parameters:  shared.FunctionParameters(d.JSONSchema()),
				},
			},
		})
	}
	return tools
}
