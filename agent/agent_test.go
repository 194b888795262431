package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/vinayprograms/slackagent/errors"
	"github.com/vinayprograms/slackagent/llm"
	"github.com/vinayprograms/slackagent/tools"
)

// fakeMessenger records outbound sends for the Slack tool registry.
type fakeMessenger struct {
	channel string
	text    string
	err     error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, channel, text string) (map[string]interface{}, error) {
	f.channel = channel
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	return map[string]interface{}{"ok": true, "channel": channel}, nil
}

func newTestAgent(t *testing.T, provider llm.Provider, messenger tools.Messenger) *SlackAgent {
	t.Helper()
	a, err := New(provider, tools.NewSlackRegistry(messenger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, tools.NewRegistry()); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("expected validation error for nil provider, got %v", err)
	}
	if _, err := New(llm.NewMockProvider(), nil); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("expected validation error for nil registry, got %v", err)
	}
}

func TestProcessMessageRequiresInitialize(t *testing.T) {
	a := newTestAgent(t, llm.NewMockProvider(), &fakeMessenger{})

	_, err := a.ProcessMessage(context.Background(), "hello")
	if errors.CodeOf(err) != errors.ErrCodeInitialization {
		t.Errorf("expected initialization error, got %v", err)
	}
	if errors.IsRetryable(err) {
		t.Error("initialization error must not be retryable")
	}
}

func TestProcessMessagePlainResponse(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetResponse("hello there")
	a := newTestAgent(t, mock, &fakeMessenger{})

	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	result, err := a.ProcessMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if result["status"] != "success" {
		t.Errorf("status = %v, want success", result["status"])
	}
	if result["response"] != "hello there" {
		t.Errorf("response = %v", result["response"])
	}
	if used := result["tools_used"].([]string); len(used) != 0 {
		t.Errorf("tools_used = %v, want empty", used)
	}
}

func TestProcessMessageInvokesTool(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetResponse("sent")
	mock.SetToolCall("send_user_message", map[string]interface{}{
		"user_id": "U123",
		"text":    "build finished",
	})
	messenger := &fakeMessenger{}
	a := newTestAgent(t, mock, messenger)
	a.Initialize(context.Background())

	result, err := a.ProcessMessage(context.Background(), "tell U123 the build finished")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}

	if messenger.channel != "U123" || messenger.text != "build finished" {
		t.Errorf("messenger called with %q %q", messenger.channel, messenger.text)
	}
	used := result["tools_used"].([]string)
	if len(used) != 1 || used[0] != "send_user_message" {
		t.Errorf("tools_used = %v", used)
	}
	// Two rounds: tool call, then final answer with the tool result.
	if mock.CallCount() != 2 {
		t.Errorf("CallCount() = %d, want 2", mock.CallCount())
	}
}

func TestProcessMessageToolFailureFedBack(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetResponse("could not send")
	mock.SetToolCall("send_user_message", map[string]interface{}{
		"user_id": "U404",
		"text":    "hi",
	})
	messenger := &fakeMessenger{err: errors.SlackAPI("no such user", "user_not_found")}
	a := newTestAgent(t, mock, messenger)
	a.Initialize(context.Background())

	// The tool failure is rendered into the transcript, not returned.
	result, err := a.ProcessMessage(context.Background(), "tell U404 hi")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if result["response"] != "could not send" {
		t.Errorf("response = %v", result["response"])
	}

	last := mock.LastRequest()
	var toolMsg *llm.Message
	for i := range last.Messages {
		if last.Messages[i].Role == "tool" {
			toolMsg = &last.Messages[i]
		}
	}
	if toolMsg == nil {
		t.Fatal("expected a tool result message in the transcript")
	}
	if !strings.HasPrefix(toolMsg.Content, "error:") {
		t.Errorf("tool result = %q, want error text", toolMsg.Content)
	}
}

func TestProcessMessageProviderErrorPropagates(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetError(errors.SDK("503 overloaded"))
	a := newTestAgent(t, mock, &fakeMessenger{})
	a.Initialize(context.Background())

	_, err := a.ProcessMessage(context.Background(), "hi")
	if errors.CodeOf(err) != errors.ErrCodeSDK {
		t.Errorf("expected SDK error, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("transient SDK error should stay retryable through the wrap")
	}
}

func TestProcessMessageToolLoopBound(t *testing.T) {
	mock := llm.NewMockProvider()
	// Always request another tool call, never converge.
	mock.ChatFunc = func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{
			ToolCalls: []llm.ToolCallResponse{
				{ID: "tc", Name: "send_user_message", Args: map[string]interface{}{"user_id": "U1", "text": "x"}},
			},
		}, nil
	}
	a := newTestAgent(t, mock, &fakeMessenger{})
	a.Initialize(context.Background())

	_, err := a.ProcessMessage(context.Background(), "loop forever")
	if errors.CodeOf(err) != errors.ErrCodeToolInvocation {
		t.Errorf("expected tool invocation error, got %v", err)
	}
	if mock.CallCount() != defaultMaxToolRounds {
		t.Errorf("CallCount() = %d, want %d", mock.CallCount(), defaultMaxToolRounds)
	}
}

func TestShutdownBlocksProcessing(t *testing.T) {
	a := newTestAgent(t, llm.NewMockProvider(), &fakeMessenger{})
	a.Initialize(context.Background())
	a.Shutdown(context.Background())

	_, err := a.ProcessMessage(context.Background(), "hi")
	if errors.CodeOf(err) != errors.ErrCodeInitialization {
		t.Errorf("expected initialization error after shutdown, got %v", err)
	}
}

func TestCard(t *testing.T) {
	a := newTestAgent(t, llm.NewMockProvider(), &fakeMessenger{})

	card := a.Card()
	if card.Name != "slack-agent" {
		t.Errorf("Name = %q", card.Name)
	}
	if len(card.Tools) != 2 {
		t.Errorf("Tools = %v", card.Tools)
	}
	if len(card.Capabilities) != 2 {
		t.Errorf("Capabilities = %v", card.Capabilities)
	}
}

func TestSystemPromptOverride(t *testing.T) {
	a, err := New(llm.NewMockProvider(), tools.NewRegistry(), WithSystemPrompt("be terse"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.SystemPrompt() != "be terse" {
		t.Errorf("SystemPrompt() = %q", a.SystemPrompt())
	}

	a, _ = New(llm.NewMockProvider(), tools.NewRegistry())
	if a.SystemPrompt() != DefaultSystemPrompt {
		t.Errorf("SystemPrompt() = %q, want default", a.SystemPrompt())
	}
}
