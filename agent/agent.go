// Package agent provides the Slack agent that processes task messages
// through an LLM provider with Slack tools available via the registry.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/vinayprograms/slackagent/errors"
	"github.com/vinayprograms/slackagent/llm"
	"github.com/vinayprograms/slackagent/logging"
	"github.com/vinayprograms/slackagent/telemetry"
	"github.com/vinayprograms/slackagent/tools"
)

// DefaultSystemPrompt is the system prompt used when none is configured.
const DefaultSystemPrompt = "You are a helpful Slack assistant agent. " +
	"You can send messages to users and channels using the available tools. " +
	"Always be concise and helpful in your responses."

// defaultMaxToolRounds bounds the model/tool round trips for one message.
const defaultMaxToolRounds = 8

// SlackAgent processes messages by running a tool-call loop against the
// LLM provider. It satisfies the executor's Agent interface.
type SlackAgent struct {
	provider      llm.Provider
	registry      *tools.Registry
	systemPrompt  string
	maxToolRounds int
	log           *logging.Logger
	tracer        *telemetry.Tracer
	initialized   atomic.Bool
}

// Option configures a SlackAgent.
type Option func(*SlackAgent)

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *SlackAgent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(a *SlackAgent) {
		a.log = log.WithComponent("agent")
	}
}

// WithTracer sets the tracer used for tool spans.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(a *SlackAgent) {
		a.tracer = tracer
	}
}

// WithMaxToolRounds bounds how many model/tool round trips one message
// may take before the agent gives up.
func WithMaxToolRounds(n int) Option {
	return func(a *SlackAgent) {
		if n > 0 {
			a.maxToolRounds = n
		}
	}
}

// New creates a SlackAgent. Both the provider and the tool registry are
// explicit dependencies.
func New(provider llm.Provider, registry *tools.Registry, opts ...Option) (*SlackAgent, error) {
	if provider == nil {
		return nil, errors.Validation("llm provider is required")
	}
	if registry == nil {
		return nil, errors.Validation("tool registry is required")
	}

	a := &SlackAgent{
		provider:      provider,
		registry:      registry,
		systemPrompt:  DefaultSystemPrompt,
		maxToolRounds: defaultMaxToolRounds,
		log:           logging.New().WithComponent("agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// SystemPrompt returns the agent's system prompt.
func (a *SlackAgent) SystemPrompt() string {
	return a.systemPrompt
}

// Tools returns the names of the tools available to the agent.
func (a *SlackAgent) Tools() []string {
	return a.registry.Names()
}

// Card returns the agent card describing this agent.
func (a *SlackAgent) Card() Card {
	return Card{
		Name:         "slack-agent",
		Description:  "AI agent for Slack messaging operations",
		Version:      tools.MCPServerVersion,
		Capabilities: []string{"messaging", "notifications"},
		Tools:        a.Tools(),
	}
}

// Initialize prepares the agent for processing messages.
func (a *SlackAgent) Initialize(ctx context.Context) error {
	a.initialized.Store(true)
	a.log.Info("agent initialized", map[string]interface{}{
		"tools": len(a.Tools()),
	})
	return nil
}

// Shutdown releases agent resources.
func (a *SlackAgent) Shutdown(ctx context.Context) error {
	a.initialized.Store(false)
	a.log.Info("agent shut down")
	return nil
}

// ProcessMessage runs the tool-call loop for one message. The model may
// request tool calls for up to maxToolRounds rounds; each call is
// dispatched through the registry and its result fed back.
func (a *SlackAgent) ProcessMessage(ctx context.Context, message string) (map[string]interface{}, error) {
	if !a.initialized.Load() {
		return nil, errors.Initialization("agent not initialized")
	}

	messages := []llm.Message{
		{Role: "system", Content: a.systemPrompt},
		{Role: "user", Content: message},
	}
	toolDefs := a.toolDefs()

	var toolsUsed []string
	var resp *llm.ChatResponse

	for round := 0; round < a.maxToolRounds; round++ {
		var err error
		resp, err = a.provider.Chat(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    toolDefs,
		})
		if err != nil {
			return nil, errors.Wrap(err, "llm chat failed")
		}

		if len(resp.ToolCalls) == 0 {
			return a.successPayload(message, resp.Content, toolsUsed), nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result := a.invokeTool(ctx, call)
			toolsUsed = append(toolsUsed, call.Name)
			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return nil, errors.ToolInvocation(
		fmt.Sprintf("tool loop did not converge after %d rounds", a.maxToolRounds))
}

// invokeTool dispatches one tool call and renders the result for the
// model. Failures are fed back as text so the model can recover; they
// never abort the loop.
func (a *SlackAgent) invokeTool(ctx context.Context, call llm.ToolCallResponse) string {
	tracer := a.tracer
	if tracer == nil {
		tracer = telemetry.GetTracer()
	}

	args := make(map[string]string, len(call.Args))
	for k, v := range call.Args {
		args[k] = fmt.Sprintf("%v", v)
	}

	ctx, span := tracer.StartToolSpan(ctx, call.Name)
	result, err := a.registry.Invoke(ctx, call.Name, args)

	var rendered string
	if err != nil {
		rendered = "error: " + err.Error()
		a.log.Warn("tool call failed", map[string]interface{}{
			"tool":  call.Name,
			"error": err.Error(),
		})
	} else {
		data, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			rendered = fmt.Sprintf("%v", result)
		} else {
			rendered = string(data)
		}
		a.log.Debug("tool call succeeded", map[string]interface{}{
			"tool": call.Name,
		})
	}

	tracer.EndToolSpan(span, telemetry.ToolSpanOptions{
		Tool:   call.Name,
		Args:   args,
		Result: rendered,
	}, err)

	return rendered
}

// toolDefs converts registry tools into LLM tool definitions.
func (a *SlackAgent) toolDefs() []llm.ToolDef {
	names := a.registry.Names()
	defs := make([]llm.ToolDef, 0, len(names))
	for _, name := range names {
		tool, ok := a.registry.Get(name)
		if !ok {
			continue
		}
		properties := make(map[string]interface{}, len(tool.Args))
		required := make([]interface{}, 0, len(tool.Args))
		for _, arg := range tool.Args {
			properties[arg] = map[string]interface{}{"type": "string"}
			required = append(required, arg)
		}
		defs = append(defs, llm.ToolDef{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		})
	}
	return defs
}

func (a *SlackAgent) successPayload(message, response string, toolsUsed []string) map[string]interface{} {
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	return map[string]interface{}{
		"status":          "success",
		"message":         message,
		"response":        response,
		"tools_used":      toolsUsed,
		"tools_available": a.Tools(),
	}
}
