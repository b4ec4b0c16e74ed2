package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/ashutoshrp06/sow-assistant/internal/types"
)

// MockTool for testing the framework
type MockTool struct {
	name        string
	description string
	params      []types.ParameterDefinition
	execFunc    func(ctx context.Context, params map[string]string) (string, error)
}

func (m *MockTool) Name() string                            { return m.name }
func (m *MockTool) Description() string                     { return m.description }
func (m *MockTool) Parameters() []types.ParameterDefinition { return m.params }
func (m *MockTool) Execute(ctx context.Context, params map[string]string) (string, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, params)
	}
	return "mock output", nil
}

func mustRegistry(t *testing.T, tools ...Tool) *Registry {
	t.Helper()
	registry, err := NewRegistry(tools...)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return registry
}

func TestNewRegistry_Duplicate(t *testing.T) {
	tool := &MockTool{name: "test-tool", description: "A test tool"}

	if _, err := NewRegistry(tool, tool); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
	if _, err := NewRegistry(&MockTool{}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := mustRegistry(t, &MockTool{name: "test-tool"})

	found, ok := registry.Get("test-tool")
	if !ok {
		t.Fatal("expected to find tool")
	}
	if found.Name() != "test-tool" {
		t.Fatalf("expected 'test-tool', got %s", found.Name())
	}

	if _, ok = registry.Get("nonexistent"); ok {
		t.Fatal("expected not to find nonexistent tool")
	}
}

func TestRegistry_ListKeepsOrder(t *testing.T) {
	registry := mustRegistry(t, &MockTool{name: "tool-b"}, &MockTool{name: "tool-a"})

	names := registry.List()
	if len(names) != 2 || names[0] != "tool-b" || names[1] != "tool-a" {
		t.Fatalf("expected [tool-b tool-a], got %v", names)
	}

	names[0] = "mutated"
	if registry.List()[0] != "tool-b" {
		t.Fatal("List must return a copy")
	}
}

func TestRegistry_Definitions(t *testing.T) {
	registry := mustRegistry(t, &MockTool{
		name:        "echo",
		description: "Echo a message",
		params:      []types.ParameterDefinition{{Name: "message", Type: "string", Required: true}},
	})

	defs := registry.Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].Name != "echo" || defs[0].Description != "Echo a message" {
		t.Fatalf("unexpected definition: %+v", defs[0])
	}
	if len(defs[0].Parameters) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(defs[0].Parameters))
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	registry := mustRegistry(t, &MockTool{
		name:   "echo",
		params: []types.ParameterDefinition{{Name: "message", Type: "string", Required: true}},
		execFunc: func(ctx context.Context, params map[string]string) (string, error) {
			return "Echoed: " + params["message"], nil
		},
	})

	executor := NewExecutor(registry)
	result, err := executor.Execute(context.Background(), types.ToolCall{ID: "call_1", Name: "echo", Arguments: `{"message":"hello"}`})

	if err != nil || !result.Success {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Output != "Echoed: hello" {
		t.Fatalf("expected 'Echoed: hello', got %s", result.Output)
	}
	if result.CallID != "call_1" {
		t.Fatalf("expected call id to be carried, got %q", result.CallID)
	}
}

func TestExecutor_Execute_UnknownTool(t *testing.T) {
	executor := NewExecutor(mustRegistry(t))

	result, err := executor.Execute(context.Background(), types.ToolCall{ID: "c", Name: "nonexistent"})

	if result.Success {
		t.Fatal("expected failure for unknown tool")
	}
	var toolErr *types.ToolExecutionError
	if !errors.As(err, &toolErr) || toolErr.Tool != "nonexistent" {
		t.Fatalf("expected ToolExecutionError, got %v", err)
	}
	if result.Error != "unknown tool: nonexistent" {
		t.Fatalf("unexpected error text: %q", result.Error)
	}
}

func TestExecutor_Execute_ToolError(t *testing.T) {
	registry := mustRegistry(t, &MockTool{
		name: "broken",
		execFunc: func(ctx context.Context, params map[string]string) (string, error) {
			return "", errors.New("backend down")
		},
	})

	result, err := NewExecutor(registry).Execute(context.Background(), types.ToolCall{Name: "broken"})

	if result.Success || err == nil {
		t.Fatal("expected failure")
	}
	if result.Error != "backend down" {
		t.Fatalf("expected 'backend down', got %q", result.Error)
	}
}

func TestExecutor_Execute_InvalidArguments(t *testing.T) {
	executor := NewExecutor(mustRegistry(t, &MockTool{name: "test"}))

	result, err := executor.Execute(context.Background(), types.ToolCall{Name: "test", Arguments: "{not json"})
	if result.Success || err == nil {
		t.Fatal("expected failure for malformed arguments")
	}
}

func TestExecutor_Execute_MissingRequiredParam(t *testing.T) {
	registry := mustRegistry(t, &MockTool{
		name:   "test",
		params: []types.ParameterDefinition{{Name: "required_param", Type: "string", Required: true}},
	})

	result, _ := NewExecutor(registry).Execute(context.Background(), types.ToolCall{Name: "test", Arguments: `{}`})

	if result.Success {
		t.Fatal("expected failure for missing required param")
	}
}

func TestExecutor_Execute_AppliesDefaults(t *testing.T) {
	registry := mustRegistry(t, &MockTool{
		name:   "test",
		params: []types.ParameterDefinition{{Name: "optional", Type: "string", Default: "default_value"}},
		execFunc: func(ctx context.Context, params map[string]string) (string, error) {
			return params["optional"], nil
		},
	})

	result, err := NewExecutor(registry).Execute(context.Background(), types.ToolCall{Name: "test"})

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Output != "default_value" {
		t.Fatalf("expected 'default_value', got %s", result.Output)
	}
}

func TestExecutor_Execute_EnumValidation(t *testing.T) {
	registry := mustRegistry(t, &MockTool{
		name:   "test",
		params: []types.ParameterDefinition{{Name: "level", Type: "string", Required: true, Enum: []string{"low", "medium", "high"}}},
	})
	executor := NewExecutor(registry)

	result, _ := executor.Execute(context.Background(), types.ToolCall{Name: "test", Arguments: `{"level":"medium"}`})
	if !result.Success {
		t.Fatalf("expected success for valid enum, got: %s", result.Error)
	}

	result, _ = executor.Execute(context.Background(), types.ToolCall{Name: "test", Arguments: `{"level":"invalid"}`})
	if result.Success {
		t.Fatal("expected failure for invalid enum value")
	}
}

func TestParseArguments(t *testing.T) {
	params, err := ParseArguments(`{"query":"payment","limit":3,"strict":true,"skip":null}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{"query": "payment", "limit": "3", "strict": "true"}
	if len(params) != len(want) {
		t.Fatalf("expected %v, got %v", want, params)
	}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("param %s: expected %q, got %q", k, v, params[k])
		}
	}

	if _, err := ParseArguments(`["not","an","object"]`); err == nil {
		t.Fatal("expected error for non-object arguments")
	}
}
