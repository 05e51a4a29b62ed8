// Package tools implements the capability-module registry and the dispatcher
// that routes tool invocations to registered modules.
package tools

import (
	"context"
	"fmt"

	gwerrors "github.com/agentgate/agentgate/internal/errors"
)

// Schema describes a tool's expected input.
type Schema struct {
	Type       string              `json:"type"`
	Required   []string            `json:"required,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
}

// Property describes one input field. Type may be a single type name or a
// list of acceptable type names.
type Property struct {
	Type        any    `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Tool is a tool's public declaration, listed by GET /tools and the manifest.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
}

// Result is the normalized success payload of a tool invocation.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// OK builds a success result.
func OK(data any, message string) *Result {
	return &Result{Success: true, Data: data, Message: message}
}

// Handler executes one tool with validated parameters.
type Handler func(ctx context.Context, params map[string]any) (*Result, error)

// Provider is a capability module: a named set of tools. New providers
// register with the Dispatcher without the dispatcher changing.
type Provider interface {
	ModuleName() string
	Tools() []Tool
	Execute(ctx context.Context, method string, params map[string]any) (*Result, error)
}

type registeredTool struct {
	decl    Tool
	handler Handler
}

// Module is a reusable Provider implementation that registers handlers by
// bare method name and validates parameters against each tool's schema
// before invoking the handler.
type Module struct {
	name  string
	tools map[string]registeredTool
	order []string
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{
		name:  name,
		tools: make(map[string]registeredTool),
	}
}

// ModuleName returns the module's registry key.
func (m *Module) ModuleName() string {
	return m.name
}

// Register adds a tool. The listed name is qualified as "module.method".
func (m *Module) Register(method, description string, schema Schema, handler Handler) {
	m.tools[method] = registeredTool{
		decl: Tool{
			Name:        m.name + "." + method,
			Description: description,
			InputSchema: schema,
		},
		handler: handler,
	}
	m.order = append(m.order, method)
}

// Tools lists the module's tools in registration order.
func (m *Module) Tools() []Tool {
	list := make([]Tool, 0, len(m.tools))
	for _, method := range m.order {
		list = append(list, m.tools[method].decl)
	}
	return list
}

// Execute validates params against the tool's schema and runs the handler. A
// handler failure or panic is converted to tool_execution_error rather than
// propagating.
func (m *Module) Execute(ctx context.Context, method string, params map[string]any) (result *Result, err error) {
	tool, ok := m.tools[method]
	if !ok {
		return nil, gwerrors.New(gwerrors.CodeToolNotFound, fmt.Sprintf("tool %s not found", method))
	}

	validated, err := ValidateParams(params, tool.decl.InputSchema)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = gwerrors.New(gwerrors.CodeToolExecutionError, fmt.Sprintf("tool %s panicked: %v", tool.decl.Name, r))
		}
	}()

	result, err = tool.handler(ctx, validated)
	if err != nil {
		e := gwerrors.AsError(err)
		if e.Code == gwerrors.CodeInternal {
			return nil, gwerrors.Wrap(err, gwerrors.CodeToolExecutionError, fmt.Sprintf("tool %s failed", tool.decl.Name))
		}
		return nil, err
	}
	return result, nil
}
