package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ashutoshrp06/sow-assistant/internal/llm"
	"github.com/ashutoshrp06/sow-assistant/internal/tools"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays canned responses and records every request.
type scriptedModel struct {
	mu        sync.Mutex
	responses []*types.Message
	err       error
	requests  []llm.Request
}

func (m *scriptedModel) Generate(ctx context.Context, req llm.Request) (*types.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.requests) - 1
	if i >= len(m.responses) {
		return m.responses[len(m.responses)-1], nil
	}
	return m.responses[i], nil
}

func assistant(content string, calls ...types.ToolCall) *types.Message {
	return &types.Message{Role: types.RoleAssistant, Content: content, ToolCalls: calls}
}

type fakeTool struct {
	name string
	out  string
	err  error
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return f.name }
func (f *fakeTool) Parameters() []types.ParameterDefinition {
	return nil
}
func (f *fakeTool) Execute(ctx context.Context, params map[string]string) (string, error) {
	return f.out, f.err
}

func newRegistry(t *testing.T, ts ...tools.Tool) *tools.Registry {
	t.Helper()
	r, err := tools.NewRegistry(ts...)
	require.NoError(t, err)
	return r
}

func collect(events *[]types.AgentEvent) Observer {
	return func(e types.AgentEvent) { *events = append(*events, e) }
}

func states(events []types.AgentEvent) []types.AgentState {
	out := make([]types.AgentState, 0, len(events))
	for _, e := range events {
		out = append(out, e.State)
	}
	return out
}

func TestRun_TerminatesWithoutToolCalls(t *testing.T) {
	model := &scriptedModel{responses: []*types.Message{assistant("The term is 12 months.")}}
	a := New(model, newRegistry(t, &fakeTool{name: "search_tool"}), Config{})

	var events []types.AgentEvent
	res, err := a.RunWithObserver(context.Background(), "How long is the term?", collect(&events))
	require.NoError(t, err)

	assert.Equal(t, "The term is 12 months.", res.Answer)
	assert.Equal(t, types.StateDone, res.State)
	assert.Equal(t, 1, res.Turns)
	assert.Len(t, model.requests, 1)
	assert.Equal(t, []types.AgentState{types.StateAgent, types.StateDone}, states(events))

	first := model.requests[0]
	require.Len(t, first.Messages, 1)
	assert.Equal(t, types.RoleUser, first.Messages[0].Role)
	require.Len(t, first.Tools, 1)
	assert.Equal(t, "search_tool", first.Tools[0].Name)
}

func TestRun_ToolProgression(t *testing.T) {
	model := &scriptedModel{responses: []*types.Message{
		assistant("", types.ToolCall{ID: "call_1", Name: "search_tool", Arguments: `{"query":"warranty"}`}),
		assistant("The SOW disclaims warranties."),
	}}
	search := &fakeTool{name: "search_tool", out: "sow.pdf: Vendor provides no warranty."}
	a := New(model, newRegistry(t, search), Config{SystemPrompt: "system"})

	var events []types.AgentEvent
	res, err := a.RunWithObserver(context.Background(), "Is there a warranty?", collect(&events))
	require.NoError(t, err)

	assert.Equal(t, "The SOW disclaims warranties.", res.Answer)
	assert.Equal(t,
		[]types.AgentState{types.StateAgent, types.StateTools, types.StateAgent, types.StateDone},
		states(events))

	require.Len(t, model.requests, 2)
	second := model.requests[1].Messages
	require.Len(t, second, 4)
	assert.Equal(t, types.RoleSystem, second[0].Role)
	assert.Equal(t, types.RoleTool, second[3].Role)
	assert.Equal(t, "call_1", second[3].ToolCallID)
	assert.Equal(t, search.out, second[3].Content)
}

func TestRun_EveryToolCallAnsweredBeforeNextTurn(t *testing.T) {
	model := &scriptedModel{responses: []*types.Message{
		assistant("",
			types.ToolCall{ID: "a", Name: "search_tool", Arguments: `{}`},
			types.ToolCall{ID: "b", Name: "risk_check_tool", Arguments: `{}`},
			types.ToolCall{ID: "c", Name: "search_tool", Arguments: `{}`},
		),
		assistant("done"),
	}}
	a := New(model, newRegistry(t,
		&fakeTool{name: "search_tool", out: "hits"},
		&fakeTool{name: "risk_check_tool", out: "No major risks"},
	), Config{})

	res, err := a.Run(context.Background(), "q")
	require.NoError(t, err)

	msgs := model.requests[1].Messages
	ids := make([]string, 0, 3)
	for _, m := range msgs {
		if m.Role == types.RoleTool {
			ids = append(ids, m.ToolCallID)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "No major risks", msgs[3].Content)
	assert.Equal(t, "done", res.Answer)
}

func TestRun_ToolErrorBecomesToolMessage(t *testing.T) {
	model := &scriptedModel{responses: []*types.Message{
		assistant("", types.ToolCall{ID: "call_1", Name: "search_tool", Arguments: `{}`}),
		assistant("Sorry, search is unavailable."),
	}}
	a := New(model, newRegistry(t, &fakeTool{name: "search_tool", err: errors.New("could not search documents: timeout")}), Config{})

	res, err := a.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, types.StateDone, res.State)

	toolMsg := model.requests[1].Messages[2]
	assert.Equal(t, types.RoleTool, toolMsg.Role)
	assert.Equal(t, "Error: could not search documents: timeout", toolMsg.Content)
}

func TestRun_UnknownToolIsRecovered(t *testing.T) {
	model := &scriptedModel{responses: []*types.Message{
		assistant("", types.ToolCall{ID: "x", Name: "delete_everything", Arguments: `{}`}),
		assistant("I can only search and check risks."),
	}}
	a := New(model, newRegistry(t, &fakeTool{name: "search_tool"}), Config{})

	res, err := a.Run(context.Background(), "q")
	require.NoError(t, err)

	toolMsg := model.requests[1].Messages[2]
	assert.Equal(t, "x", toolMsg.ToolCallID)
	assert.True(t, strings.HasPrefix(toolMsg.Content, "Error: unknown tool"))
	assert.Equal(t, "I can only search and check risks.", res.Answer)
}

func TestRun_ModelErrorIsFatal(t *testing.T) {
	model := &scriptedModel{err: errors.New("503 service unavailable")}
	a := New(model, newRegistry(t), Config{})

	var events []types.AgentEvent
	res, err := a.RunWithObserver(context.Background(), "q", collect(&events))
	assert.Nil(t, res)

	var genErr *types.GenerationError
	require.True(t, errors.As(err, &genErr))

	require.Len(t, events, 1)
	assert.Equal(t, types.StateAgent, events[0].State, "only the turn limit reports ABORTED")
	assert.Error(t, events[0].Error)
}

func TestRun_AbortsAtTurnLimit(t *testing.T) {
	loop := assistant("", types.ToolCall{ID: "again", Name: "search_tool", Arguments: `{}`})
	model := &scriptedModel{responses: []*types.Message{loop}}
	a := New(model, newRegistry(t, &fakeTool{name: "search_tool", out: "hits"}), Config{MaxTurns: 3})

	var events []types.AgentEvent
	res, err := a.RunWithObserver(context.Background(), "q", collect(&events))
	require.NoError(t, err)

	assert.Equal(t, types.StateAborted, res.State)
	assert.Equal(t, AbortedAnswer(3), res.Answer)
	assert.Contains(t, res.Answer, "could not complete")
	assert.Len(t, model.requests, 3)
	assert.Equal(t, types.StateAborted, events[len(events)-1].State)
}

func TestRun_ConversationsAreIndependent(t *testing.T) {
	model := &scriptedModel{responses: []*types.Message{assistant("ok")}}
	a := New(model, newRegistry(t), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := a.Run(context.Background(), "q")
			assert.NoError(t, err)
			assert.Len(t, res.Messages, 2)
		}()
	}
	wg.Wait()
}

func TestConversation_PendingToolCalls(t *testing.T) {
	c := NewConversation(types.NewUserMessage("q"))
	assert.Empty(t, c.PendingToolCalls())

	c.Append(*assistant("", types.ToolCall{ID: "1"}, types.ToolCall{ID: "2"}))
	c.Append(types.NewToolMessage("1", "done"))

	pending := c.PendingToolCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "2", pending[0].ID)

	msgs := c.Messages()
	msgs[0].Content = "mutated"
	first, _ := NewConversation(c.Messages()...).Last()
	assert.Equal(t, types.RoleTool, first.Role)
	assert.Equal(t, "q", c.Messages()[0].Content)
}
