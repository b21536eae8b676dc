package tool

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	ai "github.com/spetersoncode/relay"
)

type registeredTool struct {
	tool    ai.Tool
	handler Handler
}

// Registry manages registered tools and their handlers.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool with its handler to the registry.
func (r *Registry) Register(tool ai.Tool, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: tool.Name}
	}
	r.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tool ai.Tool, handler Handler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Unregister removes a tool. It is a no-op if the tool is not registered.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// GetTool retrieves a tool definition by name.
func (r *Registry) GetTool(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	return rt.tool, ok
}

// Tools returns all registered tool definitions sorted by name.
func (r *Registry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		tools = append(tools, rt.tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the handler for a tool call.
// An unknown tool yields ErrToolNotFound. A handler error is reported in the
// result with IsError set so the model can recover.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return ai.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}

	content, err := rt.handler(ctx, call)
	if err != nil {
		return ai.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}, nil
	}
	return ai.ToolResult{ToolCallID: call.ID, Content: content}, nil
}

// Registration holds a tool and its handler for fluent registration.
type Registration struct {
	Tool    ai.Tool
	Handler Handler
}

// Func creates a Registration with a schema generated from T.
// Panics if schema generation fails.
func Func[T any](name, description string, fn TypedHandler[T]) Registration {
	return Registration{
		Tool: ai.Tool{
			Name:        name,
			Description: description,
			Parameters:  MustSchemaFor[T](),
		},
		Handler: typed(name, fn),
	}
}

// WithHandler creates a Registration from a Handler and schema.
func WithHandler(name, description string, schema json.RawMessage, h Handler) Registration {
	return Registration{
		Tool:    ai.Tool{Name: name, Description: description, Parameters: schema},
		Handler: h,
	}
}

// Add registers one or more tools and returns the registry for chaining.
// Panics if any tool is already registered.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}

func typed[T any](name string, fn TypedHandler[T]) Handler {
	return func(ctx context.Context, call ai.ToolCall) (string, error) {
		var args T
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				return "", &ErrInvalidArguments{Name: name, Err: err}
			}
		}
		return fn(ctx, args)
	}
}
