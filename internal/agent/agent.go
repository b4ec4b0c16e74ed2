// Package agent implements the tool-calling control loop of the contract agent.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashutoshrp06/sow-assistant/internal/llm"
	"github.com/ashutoshrp06/sow-assistant/internal/tools"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxTurns = 8

// Observer receives a copy of every state transition.
type Observer func(types.AgentEvent)

// Agent drives the AGENT/TOOLS state machine. It holds no per-run state
// and is safe for concurrent use.
type Agent struct {
	model        llm.ChatModel
	registry     *tools.Registry
	executor     *tools.Executor
	maxTurns     int
	systemPrompt string
	logger       *zap.Logger
}

// Config holds agent configuration.
type Config struct {
	// MaxTurns bounds the number of model invocations per run.
	MaxTurns int
	// SystemPrompt is prepended to every conversation when non-empty.
	SystemPrompt string
	Logger       *zap.Logger
}

// Result is the outcome of one run.
type Result struct {
	Answer   string
	State    types.AgentState
	Turns    int
	Messages []types.Message
}

// New creates an agent bound to the given model and tool registry.
func New(model llm.ChatModel, registry *tools.Registry, cfg Config) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = defaultMaxTurns
	}
	return &Agent{
		model:        model,
		registry:     registry,
		executor:     tools.NewExecutor(registry),
		maxTurns:     cfg.MaxTurns,
		systemPrompt: cfg.SystemPrompt,
		logger:       cfg.Logger,
	}
}

// AbortedAnswer is returned when the run hits the turn limit.
func AbortedAnswer(maxTurns int) string {
	return fmt.Sprintf("I could not complete this request within %d steps. Please narrow the question and try again.", maxTurns)
}

// Run answers question with the tool loop.
func (a *Agent) Run(ctx context.Context, question string) (*Result, error) {
	return a.RunWithObserver(ctx, question, nil)
}

// RunWithObserver answers question and reports each transition to observe.
// A model failure ends the run with a *types.GenerationError. Tool failures
// are fed back to the model as tool messages.
func (a *Agent) RunWithObserver(ctx context.Context, question string, observe Observer) (*Result, error) {
	if observe == nil {
		observe = func(types.AgentEvent) {}
	}

	conv := NewConversation()
	if a.systemPrompt != "" {
		conv.Append(types.NewSystemMessage(a.systemPrompt))
	}
	conv.Append(types.NewUserMessage(question))

	defs := a.registry.Definitions()
	state := types.StateAgent
	turn := 0
	start := time.Now()

	for {
		switch state {
		case types.StateAgent:
			if turn >= a.maxTurns {
				state = types.StateAborted
				continue
			}
			turn++

			msg, err := a.model.Generate(ctx, llm.Request{Messages: conv.Messages(), Tools: defs})
			if err != nil {
				a.logger.Error("Model call failed", zap.Int("turn", turn), zap.Error(err))
				observe(types.AgentEvent{State: types.StateAgent, Turn: turn, Error: err})
				var genErr *types.GenerationError
				if !errors.As(err, &genErr) {
					err = &types.GenerationError{Op: "agent turn", Err: err}
				}
				return nil, err
			}
			conv.Append(*msg)

			observe(types.AgentEvent{State: types.StateAgent, Turn: turn, ToolCalls: msg.ToolCalls})

			if msg.HasToolCalls() {
				state = types.StateTools
			} else {
				state = types.StateDone
			}

		case types.StateTools:
			results := a.executeTools(ctx, conv.PendingToolCalls())
			for _, r := range results {
				conv.Append(types.NewToolMessage(r.CallID, toolContent(r)))
			}
			observe(types.AgentEvent{State: types.StateTools, Turn: turn, ToolResults: results})
			state = types.StateAgent

		case types.StateDone:
			last, _ := conv.Last()
			a.logger.Info("Agent run completed",
				zap.Int("turns", turn),
				zap.Int("messages", conv.Len()),
				zap.Duration("elapsed", time.Since(start)))
			observe(types.AgentEvent{State: types.StateDone, Turn: turn, FinalAnswer: last.Content})
			return &Result{Answer: last.Content, State: state, Turns: turn, Messages: conv.Messages()}, nil

		case types.StateAborted:
			answer := AbortedAnswer(a.maxTurns)
			a.logger.Warn("Agent run aborted at turn limit",
				zap.Int("max_turns", a.maxTurns),
				zap.Duration("elapsed", time.Since(start)))
			observe(types.AgentEvent{State: types.StateAborted, Turn: turn, FinalAnswer: answer})
			return &Result{Answer: answer, State: state, Turns: turn, Messages: conv.Messages()}, nil
		}
	}
}

// executeTools runs one turn's tool calls concurrently and returns the
// results in call order.
func (a *Agent) executeTools(ctx context.Context, calls []types.ToolCall) []types.ToolResult {
	results := make([]types.ToolResult, len(calls))

	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			result, err := a.executor.Execute(ctx, call)
			if err != nil {
				a.logger.Warn("Tool execution failed",
					zap.String("tool", call.Name),
					zap.String("call_id", call.ID),
					zap.Error(err))
			} else {
				a.logger.Debug("Tool executed",
					zap.String("tool", call.Name),
					zap.Duration("duration", result.Duration))
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ListTools returns available tool information.
func (a *Agent) ListTools() []types.ToolInfo {
	return a.registry.ListTools()
}

// MaxTurns returns the configured turn limit.
func (a *Agent) MaxTurns() int {
	return a.maxTurns
}

// toolContent is the tool message text the model sees for a result.
func toolContent(r types.ToolResult) string {
	if r.Success {
		return r.Output
	}
	return "Error: " + r.Error
}
