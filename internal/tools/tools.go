// Package tools provides the tool set exposed to the contract agent.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ashutoshrp06/sow-assistant/internal/types"
)

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier the model uses to call this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Parameters returns the parameter schema for validation.
	Parameters() []types.ParameterDefinition

	// Execute runs the tool with validated parameters.
	Execute(ctx context.Context, params map[string]string) (string, error)
}

// Registry is an immutable name-to-tool mapping built once at startup.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools in order.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(tools)),
		tools: make(map[string]Tool, len(tools)),
	}
	for _, tool := range tools {
		name := tool.Name()
		if name == "" {
			return nil, errors.New("tool name must not be empty")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("tool already registered: %s", name)
		}
		r.order = append(r.order, name)
		r.tools[name] = tool
	}
	return r, nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names in registration order.
func (r *Registry) List() []string {
	return slices.Clone(r.order)
}

// All returns all registered tools in registration order.
func (r *Registry) All() []Tool {
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Definitions returns the tool definitions bound to every model call.
func (r *Registry) Definitions() []types.ToolDefinition {
	defs := make([]types.ToolDefinition, 0, len(r.order))
	for _, tool := range r.All() {
		defs = append(defs, types.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return defs
}

// ListTools returns all registered tools with their metadata.
func (r *Registry) ListTools() []types.ToolInfo {
	infos := make([]types.ToolInfo, 0, len(r.order))
	for _, tool := range r.All() {
		infos = append(infos, types.ToolInfo{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return infos
}

// Executor handles tool execution with validation and timing.
type Executor struct {
	registry *Registry
}

// NewExecutor creates a new tool executor.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute runs the tool named by call. The result is always populated;
// on failure Success is false, Error carries the reason and the returned
// error is a *types.ToolExecutionError.
func (e *Executor) Execute(ctx context.Context, call types.ToolCall) (types.ToolResult, error) {
	start := time.Now()
	result := types.ToolResult{CallID: call.ID, ToolName: call.Name}

	fail := func(err error) (types.ToolResult, error) {
		result.Success = false
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result, &types.ToolExecutionError{Tool: call.Name, Err: err}
	}

	tool, exists := e.registry.Get(call.Name)
	if !exists {
		return fail(fmt.Errorf("unknown tool: %s", call.Name))
	}

	params, err := ParseArguments(call.Arguments)
	if err != nil {
		return fail(err)
	}

	if err := validateParams(tool, params); err != nil {
		return fail(fmt.Errorf("validation failed: %w", err))
	}

	params = applyDefaults(tool, params)

	output, err := tool.Execute(ctx, params)
	if err != nil {
		return fail(err)
	}

	result.Success = true
	result.Output = output
	result.Duration = time.Since(start)
	return result, nil
}

// ParseArguments decodes the model's JSON argument object into string
// parameters. Non-string values keep their JSON text.
func ParseArguments(raw string) (map[string]string, error) {
	params := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return params, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	for k, v := range fields {
		if string(v) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			params[k] = s
			continue
		}
		params[k] = string(v)
	}
	return params, nil
}

// validateParams checks required parameters and enum values.
func validateParams(tool Tool, params map[string]string) error {
	for _, def := range tool.Parameters() {
		value, exists := params[def.Name]

		if def.Required && !exists {
			return fmt.Errorf("missing required parameter: %s", def.Name)
		}

		if exists && len(def.Enum) > 0 && !slices.Contains(def.Enum, value) {
			return fmt.Errorf("invalid value for %s: must be one of %v", def.Name, def.Enum)
		}
	}
	return nil
}

// applyDefaults fills in default values for missing optional parameters.
func applyDefaults(tool Tool, params map[string]string) map[string]string {
	result := make(map[string]string, len(params))
	for k, v := range params {
		result[k] = v
	}

	for _, def := range tool.Parameters() {
		if _, exists := result[def.Name]; !exists && def.Default != "" {
			result[def.Name] = def.Default
		}
	}

	return result
}
