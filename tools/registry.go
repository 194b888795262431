// Package tools provides the Slack tool registry exposed to the agent
// through MCP.
package tools

import (
	"context"
	"sort"
	"sync"

	"github.com/vinayprograms/slackagent/errors"
)

// Handler executes a tool call with named string arguments.
type Handler func(ctx context.Context, args map[string]string) (map[string]interface{}, error)

// Tool is one callable capability registered with the agent.
type Tool struct {
	// Name is the identifier the agent uses to invoke the tool.
	Name string

	// Description tells the model what the tool does and when to use it.
	Description string

	// Args lists the required argument names, in calling order.
	Args []string

	// Handler performs the call.
	Handler Handler
}

// Registry holds the tools available to the agent.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool. Registering a duplicate name is a validation error.
func (r *Registry) Register(tool *Tool) error {
	if tool == nil || tool.Name == "" || tool.Handler == nil {
		return errors.Validation("tool must have a name and a handler")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return errors.Validation("tool already registered: " + tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
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

// Invoke runs the named tool. Unknown tools and missing arguments surface
// as typed errors; handler failures pass through with their own
// classification.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]string) (map[string]interface{}, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, errors.ToolInvocation("unknown tool: " + name)
	}

	for _, arg := range tool.Args {
		if args[arg] == "" {
			return nil, errors.Validation("missing required argument: " + arg)
		}
	}

	return tool.Handler(ctx, args)
}
