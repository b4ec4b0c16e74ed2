package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestAgentState_String(t *testing.T) {
	tests := []struct {
		state    AgentState
		expected string
	}{
		{StateAgent, "AGENT"},
		{StateTools, "TOOLS"},
		{StateDone, "DONE"},
		{StateAborted, "ABORTED"},
		{AgentState(100), "Unknown"},
		{AgentState(-1), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestAgentState_Terminal(t *testing.T) {
	if StateAgent.Terminal() || StateTools.Terminal() {
		t.Error("AGENT and TOOLS must not be terminal")
	}
	if !StateDone.Terminal() || !StateAborted.Terminal() {
		t.Error("DONE and ABORTED must be terminal")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"SIMPLE_RAG", ModeSimpleRAG, false},
		{"simple", ModeSimpleRAG, false},
		{" Simple RAG ", ModeSimpleRAG, false},
		{"agent", ModeAgent, false},
		{"Contract Agent", ModeAgent, false},
		{"bogus", ModeSimpleRAG, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestToolDefinition_JSONSchema(t *testing.T) {
	def := ToolDefinition{
		Name: "search_tool",
		Parameters: []ParameterDefinition{
			{Name: "query", Type: "string", Description: "search text", Required: true},
			{Name: "scope", Type: "string", Enum: []string{"all", "titles"}},
		},
	}

	schema := def.JSONSchema()
	if schema["type"] != "object" {
		t.Fatalf("expected object schema, got %v", schema["type"])
	}
	required, ok := schema["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "query" {
		t.Fatalf("unexpected required list: %v", schema["required"])
	}
	props := schema["properties"].(map[string]any)
	scope := props["scope"].(map[string]any)
	if _, ok := scope["enum"]; !ok {
		t.Error("expected enum on scope property")
	}
}

func TestErrorTaxonomy_Unwrap(t *testing.T) {
	base := errors.New("connection refused")

	var re *RetrievalError
	err := fmt.Errorf("search: %w", &RetrievalError{Op: "query", Err: base})
	if !errors.As(err, &re) {
		t.Fatal("expected RetrievalError via errors.As")
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped cause to be reachable")
	}

	var te *ToolExecutionError
	if !errors.As(&ToolExecutionError{Tool: "x", Err: base}, &te) || te.Tool != "x" {
		t.Error("expected ToolExecutionError with tool name")
	}
}
