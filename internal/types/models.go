// Package types defines shared data structures for the SOW assistant.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the language model.
// Arguments holds the raw JSON object emitted by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one turn in a conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewToolMessage creates a tool-role message answering the call with the given ID.
func NewToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// HasToolCalls reports whether the message requests any tool execution.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Chunk is a retrieved document fragment projected to the fields the core uses.
type Chunk struct {
	Title string `json:"title"`
	Chunk string `json:"chunk"`
}

// ParameterDefinition describes a single tool parameter.
type ParameterDefinition struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Required    bool     `json:"required" yaml:"required"`
	Default     string   `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// ToolDefinition is the model-facing description of a registered tool.
type ToolDefinition struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  []ParameterDefinition `json:"parameters"`
}

// JSONSchema renders the parameter list as a JSON-schema object.
func (d ToolDefinition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ToolResult holds the outcome of one tool execution.
type ToolResult struct {
	CallID   string        `json:"call_id"`
	ToolName string        `json:"tool_name"`
	Success  bool          `json:"success"`
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// AgentState is a state of the agent control loop.
type AgentState int

const (
	StateAgent AgentState = iota
	StateTools
	StateDone
	StateAborted
)

// String returns a human-readable state name.
func (s AgentState) String() string {
	names := [...]string{
		"AGENT",
		"TOOLS",
		"DONE",
		"ABORTED",
	}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// Terminal reports whether the loop stops in this state.
func (s AgentState) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Mode selects how a question is answered.
type Mode int

const (
	ModeSimpleRAG Mode = iota
	ModeAgent
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSimpleRAG:
		return "SIMPLE_RAG"
	case ModeAgent:
		return "AGENT"
	default:
		return "Unknown"
	}
}

// Label returns the display name of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeSimpleRAG:
		return "Simple RAG"
	case ModeAgent:
		return "Contract Agent"
	default:
		return "Unknown"
	}
}

// ParseMode maps user input to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple_rag", "simple-rag", "simple", "rag", "simple rag":
		return ModeSimpleRAG, nil
	case "agent", "contract", "contract agent", "contract_agent":
		return ModeAgent, nil
	}
	return ModeSimpleRAG, fmt.Errorf("unknown mode %q", s)
}

// AgentEvent reports progress of a request to the UI.
type AgentEvent struct {
	State       AgentState
	Turn        int
	ToolCalls   []ToolCall
	ToolResults []ToolResult
	FinalAnswer string
	Error       error
}

// ToolInfo contains metadata about a tool for display.
type ToolInfo struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  []ParameterDefinition `json:"parameters"`
}
