package main

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ashutoshrp06/sow-assistant/internal/config"
	"github.com/ashutoshrp06/sow-assistant/internal/llm"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memorySearcher struct {
	chunks []types.Chunk
}

func (m *memorySearcher) Search(ctx context.Context, query string, topK int) ([]types.Chunk, error) {
	if len(m.chunks) > topK {
		return m.chunks[:topK], nil
	}
	return m.chunks, nil
}

// replayModel answers grounded prompts directly and drives the agent
// through search, risk check and a final answer.
type replayModel struct {
	mu       sync.Mutex
	requests []llm.Request
}

func (m *replayModel) Generate(ctx context.Context, req llm.Request) (*types.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(req.Tools) == 0 {
		return &types.Message{Role: types.RoleAssistant, Content: "Payment is 100% after completion (Source: sow-acme.pdf)."}, nil
	}

	var toolMsgs []types.Message
	for _, msg := range req.Messages {
		if msg.Role == types.RoleTool {
			toolMsgs = append(toolMsgs, msg)
		}
	}

	switch len(toolMsgs) {
	case 0:
		return &types.Message{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{
			{ID: "call_search", Name: "search_tool", Arguments: `{"query":"payment warranty"}`},
		}}, nil
	case 1:
		return &types.Message{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{
			{ID: "call_risk", Name: "risk_check_tool", Arguments: `{"content":` + quote(toolMsgs[0].Content) + `}`},
		}}, nil
	default:
		return &types.Message{Role: types.RoleAssistant, Content: "Risks found:\n" + toolMsgs[1].Content}, nil
	}
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func testApp(t *testing.T) (*app, *replayModel) {
	t.Helper()
	searcher := &memorySearcher{chunks: []types.Chunk{
		{Title: "sow-acme.pdf", Chunk: "This SOW includes no warranty and requires 100% payment after completion."},
	}}
	model := &replayModel{}

	a, err := assemble(config.DefaultConfig(), model, searcher, zap.NewNop())
	require.NoError(t, err)
	return a, model
}

func TestAssemble_SimpleRAG(t *testing.T) {
	a, model := testApp(t)

	answer, err := a.dispatcher.Handle(context.Background(), "What are the payment terms?", types.ModeSimpleRAG)
	require.NoError(t, err)
	assert.Contains(t, answer, "Source: sow-acme.pdf")

	require.Len(t, model.requests, 1)
	assert.Contains(t, model.requests[0].Messages[1].Content, "- This SOW includes no warranty")
}

func TestAssemble_AgentEndToEnd(t *testing.T) {
	a, model := testApp(t)

	answer, err := a.dispatcher.Handle(context.Background(), "Does the Acme SOW carry contractual risk?", types.ModeAgent)
	require.NoError(t, err)

	assert.Equal(t, "Risks found:\nNo warranty\nFull payment after completion\nMissing IP clause", answer)
	require.Len(t, model.requests, 3)
	assert.Equal(t, types.RoleSystem, model.requests[0].Messages[0].Role)
	assert.Len(t, model.requests[0].Tools, 2)
}

func TestAssemble_RegistersBothTools(t *testing.T) {
	a, _ := testApp(t)
	assert.Equal(t, []string{"search_tool", "risk_check_tool"}, a.registry.List())
	assert.NoError(t, a.Close())
}

func TestAssemble_RejectsUnknownRiskStrategy(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Agent.RiskStrategy = "oracle"

	_, err := assemble(cfg, &replayModel{}, &memorySearcher{}, zap.NewNop())
	assert.Error(t, err)
}
