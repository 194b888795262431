// Package llm provides LLM provider interfaces and implementations.
package llm

import (
	"context"

	"github.com/vinayprograms/slackagent/errors"
)

// Message represents an LLM message.
type Message struct {
	Role       string             `json:"role"` // user, assistant, tool, system
	Content    string             `json:"content"`
	ToolCalls  []ToolCallResponse `json:"tool_calls,omitempty"`
	ToolCallID string             `json:"tool_call_id,omitempty"` // For tool result messages
}

// ToolDef represents a tool definition for the LLM.
type ToolDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCallResponse represents a tool call from the LLM.
type ToolCallResponse struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// ChatRequest represents a chat request to the LLM.
type ChatRequest struct {
	Messages  []Message `json:"messages"`
	Tools     []ToolDef `json:"tools,omitempty"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// ChatResponse represents a chat response from the LLM.
type ChatResponse struct {
	Content      string             `json:"content"`
	ToolCalls    []ToolCallResponse `json:"tool_calls,omitempty"`
	StopReason   string             `json:"stop_reason"`
	InputTokens  int                `json:"input_tokens"`
	OutputTokens int                `json:"output_tokens"`
	Model        string             `json:"model"`
}

// Provider is the interface for LLM providers.
// Providers make a single attempt per call; retry policy belongs to the
// task executor that owns the call.
type Provider interface {
	// Chat sends a chat request and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Config holds configuration for building a provider.
type Config struct {
	Provider  string `json:"provider" toml:"provider"` // anthropic, openai, google
	Model     string `json:"model" toml:"model"`
	APIKey    string `json:"api_key" toml:"api_key"`
	MaxTokens int    `json:"max_tokens" toml:"max_tokens"`
	BaseURL   string `json:"base_url" toml:"base_url"` // Custom API endpoint
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return errors.Validation("llm provider is required")
	}
	if c.Model == "" {
		return errors.Validation("llm model is required")
	}
	if c.APIKey == "" {
		return errors.Validation("llm api key is required")
	}
	if c.MaxTokens <= 0 {
		return errors.Validation("llm max_tokens is required")
	}
	return nil
}

// NewProvider creates a provider based on the configuration.
func NewProvider(cfg Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
	case "google":
		return NewGoogleProvider(GoogleConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
	default:
		return nil, errors.Validation("unknown llm provider: " + cfg.Provider)
	}
}

// --- Mock Provider for Testing ---

// MockProvider is a mock LLM provider for testing.
type MockProvider struct {
	response    string
	toolCalls   []ToolCallResponse
	stopReason  string
	lastRequest *ChatRequest
	err         error
	callCount   int

	// ChatFunc can be overridden for custom behavior
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		stopReason: "end_turn",
	}
}

// SetResponse sets the response content.
func (p *MockProvider) SetResponse(content string) {
	p.response = content
}

// SetToolCall sets a single tool call response.
func (p *MockProvider) SetToolCall(name string, args map[string]interface{}) {
	p.toolCalls = []ToolCallResponse{
		{ID: "tc-1", Name: name, Args: args},
	}
}

// SetError sets an error to return.
func (p *MockProvider) SetError(err error) {
	p.err = err
}

// LastRequest returns the last request.
func (p *MockProvider) LastRequest() *ChatRequest {
	return p.lastRequest
}

// CallCount returns the number of Chat calls made.
func (p *MockProvider) CallCount() int {
	return p.callCount
}

// Chat implements the Provider interface.
func (p *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p.callCount++
	p.lastRequest = &req

	if p.ChatFunc != nil {
		return p.ChatFunc(ctx, req)
	}

	if p.err != nil {
		return nil, p.err
	}

	// Once a tool result comes back, answer with content instead of
	// requesting the same tool again.
	hasToolResult := false
	for _, msg := range req.Messages {
		if msg.Role == "tool" {
			hasToolResult = true
			break
		}
	}

	if hasToolResult {
		return &ChatResponse{
			Content:    p.response,
			StopReason: p.stopReason,
		}, nil
	}

	return &ChatResponse{
		Content:    p.response,
		ToolCalls:  p.toolCalls,
		StopReason: p.stopReason,
	}, nil
}
