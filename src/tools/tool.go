package tools

import "context"

// Spec describes a tool to clients and to the language model.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ArgsSchema  map[string]any `json:"args_schema"`
}

// Handler executes a tool with already-decoded arguments.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

// Tool is a named, schema-described unit of executable capability.
type Tool interface {
	Spec() Spec
	Invoke(ctx context.Context, args map[string]any) (map[string]any, error)
}

// FuncTool adapts a plain handler function to the Tool interface. All
// built-in tools are FuncTools.
type FuncTool struct {
	spec    Spec
	handler Handler
}

// NewFuncTool builds a Tool from a handler function.
func NewFuncTool(name, description string, schema map[string]any, handler Handler) *FuncTool {
	return &FuncTool{
		spec:    Spec{Name: name, Description: description, ArgsSchema: schema},
		handler: handler,
	}
}

func (t *FuncTool) Spec() Spec { return t.spec }

func (t *FuncTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	return t.handler(ctx, args)
}
