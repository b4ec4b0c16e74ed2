package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashutoshrp06/sow-assistant/internal/llm"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
)

// NoMajorRisks is the heuristic assessor's empty result.
const NoMajorRisks = "No major risks"

// Risk strategy names accepted by NewRiskAssessor.
const (
	StrategyHeuristic = "heuristic"
	StrategyModel     = "model"
)

// RiskAssessor reports contractual risks found in SOW content. It must
// never report a risk the content does not support.
type RiskAssessor interface {
	AssessRisk(ctx context.Context, content string) (string, error)
}

// HeuristicAssessor applies fixed keyword checks.
type HeuristicAssessor struct{}

// AssessRisk returns one flag per line, or NoMajorRisks.
func (HeuristicAssessor) AssessRisk(_ context.Context, content string) (string, error) {
	lower := strings.ToLower(content)

	var flags []string
	if strings.Contains(lower, "no warranty") {
		flags = append(flags, "No warranty")
	}
	if strings.Contains(lower, "100%") &&
		(strings.Contains(lower, "completion") || strings.Contains(lower, "after")) {
		flags = append(flags, "Full payment after completion")
	}
	if !strings.Contains(lower, "intellectual property") {
		flags = append(flags, "Missing IP clause")
	}

	if len(flags) == 0 {
		return NoMajorRisks, nil
	}
	return strings.Join(flags, "\n"), nil
}

// ModelAssessor asks the language model for a categorized risk review.
type ModelAssessor struct {
	model       llm.ChatModel
	temperature float64
}

// NewModelAssessor creates a model-backed assessor sampling at temperature.
func NewModelAssessor(model llm.ChatModel, temperature float64) *ModelAssessor {
	return &ModelAssessor{model: model, temperature: temperature}
}

// AssessRisk sends the structured risk prompt. Empty content is answered
// with llm.NoRisksDetected without a model call.
func (a *ModelAssessor) AssessRisk(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return llm.NoRisksDetected, nil
	}

	msg, err := a.model.Generate(ctx, llm.Request{
		Messages:    []types.Message{types.NewUserMessage(llm.BuildRiskPrompt(content))},
		Temperature: llm.Temperature(a.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("risk analysis failed: %w", err)
	}

	out := strings.TrimSpace(msg.Content)
	if out == "" {
		return llm.NoRisksDetected, nil
	}
	return out, nil
}

// NewRiskAssessor selects the assessor for strategy. model may be nil for
// the heuristic strategy.
func NewRiskAssessor(strategy string, model llm.ChatModel, temperature float64) (RiskAssessor, error) {
	switch strings.ToLower(strategy) {
	case "", StrategyHeuristic:
		return HeuristicAssessor{}, nil
	case StrategyModel:
		if model == nil {
			return nil, fmt.Errorf("risk strategy %q requires a model", strategy)
		}
		return NewModelAssessor(model, temperature), nil
	default:
		return nil, fmt.Errorf("unknown risk strategy: %s", strategy)
	}
}

// RiskCheckTool exposes a RiskAssessor to the agent.
type RiskCheckTool struct {
	assessor RiskAssessor
}

// NewRiskCheckTool creates the risk check tool.
func NewRiskCheckTool(assessor RiskAssessor) *RiskCheckTool {
	return &RiskCheckTool{assessor: assessor}
}

func (t *RiskCheckTool) Name() string { return "risk_check_tool" }

func (t *RiskCheckTool) Description() string {
	return "Check for risks in SOW document content. Only identify risks present in the content. Do not make up risks."
}

func (t *RiskCheckTool) Parameters() []types.ParameterDefinition {
	return []types.ParameterDefinition{
		{
			Name:        "content",
			Type:        "string",
			Description: "SOW text to check for contractual risks",
			Required:    true,
		},
	}
}

func (t *RiskCheckTool) Execute(ctx context.Context, params map[string]string) (string, error) {
	return t.assessor.AssessRisk(ctx, params["content"])
}
