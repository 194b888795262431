package errors

// ErrorCategory classifies errors by their retry semantics.
type ErrorCategory string

// Error categories define how the executor handles a failure.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: SDK hiccups, timeouts, Slack API 5xx responses.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: invalid input, missing task, agent not initialized.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryInternal indicates unexpected errors and bugs.
	// Unknown failures land here and are retried on the assumption
	// that they might be transient.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryInternal:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for the agent adapter and executor API.
const (
	// Adapter errors surfaced during task execution.
	ErrCodeInitialization ErrorCode = "INITIALIZATION_ERROR"  // Agent not initialized or failed to start
	ErrCodeToolInvocation ErrorCode = "TOOL_INVOCATION_ERROR" // A tool call failed
	ErrCodeSDK            ErrorCode = "SDK_ERROR"             // Underlying agent SDK failure
	ErrCodeTimeout        ErrorCode = "TIMEOUT_ERROR"         // Operation timed out
	ErrCodeValidation     ErrorCode = "VALIDATION_ERROR"      // Malformed or invalid input

	// Executor API errors propagated to callers.
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"    // Unknown task ID
	ErrCodePrecondition ErrorCode = "PRECONDITION" // Executor not started or already stopped

	// Outbound messaging errors.
	ErrCodeSlackAPI ErrorCode = "SLACK_API_ERROR" // Slack Web API returned an error

	// Catch-all for unclassified failures.
	ErrCodeInternal ErrorCode = "INTERNAL" // Unexpected internal error
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeToolInvocation, ErrCodeSDK, ErrCodeTimeout, ErrCodeSlackAPI:
		return CategoryTransient
	case ErrCodeInitialization, ErrCodeValidation, ErrCodeNotFound, ErrCodePrecondition:
		return CategoryPermanent
	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeInitialization: "agent initialization failed",
	ErrCodeToolInvocation: "tool invocation failed",
	ErrCodeSDK:            "agent SDK error",
	ErrCodeTimeout:        "operation timed out",
	ErrCodeValidation:     "invalid input provided",
	ErrCodeNotFound:       "task not found",
	ErrCodePrecondition:   "precondition failed",
	ErrCodeSlackAPI:       "slack API error",
	ErrCodeInternal:       "internal error",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
