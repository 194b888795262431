package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// AgentError is the interface for all structured errors in the service.
// It extends the standard error interface with the context the task
// executor needs for retry decisions.
type AgentError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category for retry/handling decisions.
	Category() ErrorCategory

	// Retryable returns true if the operation may succeed on retry.
	Retryable() bool

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of AgentError.
type Error struct {
	code      ErrorCode
	category  ErrorCategory
	message   string
	cause     error
	retryable *bool // nil means use default based on category
	timestamp time.Time
	taskID    string // related task, if applicable
	slackCode string // provider error code from the Slack API, if applicable
}

// Ensure Error implements AgentError and json.Marshaler/Unmarshaler.
var (
	_ AgentError       = (*Error)(nil)
	_ json.Marshaler   = (*Error)(nil)
	_ json.Unmarshaler = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable returns whether this error is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// TaskID returns the related task ID, if set.
func (e *Error) TaskID() string {
	return e.taskID
}

// SlackCode returns the Slack API error code, if set.
func (e *Error) SlackCode() string {
	return e.slackCode
}

// errorJSON is the JSON representation of an Error.
type errorJSON struct {
	Code      ErrorCode     `json:"code"`
	Category  ErrorCategory `json:"category"`
	Message   string        `json:"message"`
	Cause     string        `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Timestamp string        `json:"timestamp,omitempty"`
	TaskID    string        `json:"task_id,omitempty"`
	SlackCode string        `json:"slack_code,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Code:      e.code,
		Category:  e.category,
		Message:   e.message,
		Retryable: e.Retryable(),
		TaskID:    e.taskID,
		SlackCode: e.slackCode,
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.code = j.Code
	e.category = j.Category
	e.message = j.Message
	e.taskID = j.TaskID
	e.slackCode = j.SlackCode
	r := j.Retryable
	e.retryable = &r
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithTaskID sets the related task ID.
func WithTaskID(id string) Option {
	return func(e *Error) {
		e.taskID = id
	}
}

// WithSlackCode sets the provider error code from the Slack API.
func WithSlackCode(code string) Option {
	return func(e *Error) {
		e.slackCode = code
	}
}

// WithTimestamp sets a custom timestamp.
func WithTimestamp(t time.Time) Option {
	return func(e *Error) {
		e.timestamp = t
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// Initialization creates an agent initialization error.
func Initialization(message string, opts ...Option) *Error {
	return New(ErrCodeInitialization, message, opts...)
}

// ToolInvocation creates a tool invocation error.
func ToolInvocation(message string, opts ...Option) *Error {
	return New(ErrCodeToolInvocation, message, opts...)
}

// SDK creates an agent SDK error.
func SDK(message string, opts ...Option) *Error {
	return New(ErrCodeSDK, message, opts...)
}

// Timeout creates a timeout error.
func Timeout(message string, opts ...Option) *Error {
	return New(ErrCodeTimeout, message, opts...)
}

// Validation creates a validation error.
func Validation(message string, opts ...Option) *Error {
	return New(ErrCodeValidation, message, opts...)
}

// NotFound creates a not found error for the given task ID.
func NotFound(taskID string, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID)}, opts...)
	return New(ErrCodeNotFound, fmt.Sprintf("task not found: %s", taskID), opts...)
}

// Precondition creates a precondition failed error.
func Precondition(message string, opts ...Option) *Error {
	return New(ErrCodePrecondition, message, opts...)
}

// SlackAPI creates a Slack API error carrying the provider error code.
func SlackAPI(message, slackCode string, opts ...Option) *Error {
	opts = append([]Option{WithSlackCode(slackCode)}, opts...)
	return New(ErrCodeSlackAPI, message, opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(ErrCodeInternal, message, opts...)
}
