package tasks

import (
	"time"
)

// Status represents the current state of a task.
type Status string

const (
	// StatusPending indicates the task is stored and waiting for execution.
	StatusPending Status = "pending"

	// StatusRunning indicates an attempt is in flight.
	StatusRunning Status = "running"

	// StatusRetrying indicates the task is waiting out a backoff delay
	// between attempts.
	StatusRetrying Status = "retrying"

	// StatusCompleted indicates the task finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the task exhausted its attempts or hit a
	// non-retryable error.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the task was cancelled by executor shutdown.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Result describes the outcome of a task execution.
// Exactly one of Data/Error is meaningful depending on Success.
type Result struct {
	// Success is whether the task completed successfully.
	Success bool `json:"success"`

	// Message is a human-readable summary of the outcome.
	Message string `json:"message"`

	// Data is the agent's response payload on success.
	Data map[string]interface{} `json:"data,omitempty"`

	// Error is the failure message when Success is false.
	Error string `json:"error,omitempty"`
}

// Clone creates a copy of the result with its own data map.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	clone := &Result{
		Success: r.Success,
		Message: r.Message,
		Error:   r.Error,
	}
	if r.Data != nil {
		clone.Data = make(map[string]interface{}, len(r.Data))
		for k, v := range r.Data {
			clone.Data[k] = v
		}
	}
	return clone
}

// Task is one unit of submitted agent work.
type Task struct {
	// ID is the unique identifier, generated at submission and never changed.
	ID string `json:"id"`

	// Message is the input prompt passed to the agent.
	Message string `json:"message"`

	// Metadata is caller-supplied context, passed through unmodified.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Result is the outcome, set once the task reaches a terminal state.
	Result *Result `json:"result,omitempty"`

	// RetryCount is the number of attempts made so far.
	RetryCount int `json:"retry_count"`

	// LastError is the most recent failure message, cleared on success.
	LastError string `json:"last_error,omitempty"`

	// CreatedAt is when the task was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// Clone creates a deep copy of the task.
// The store hands out clones so callers can never mutate stored records.
func (t *Task) Clone() *Task {
	clone := &Task{
		ID:         t.ID,
		Message:    t.Message,
		Status:     t.Status,
		RetryCount: t.RetryCount,
		LastError:  t.LastError,
		CreatedAt:  t.CreatedAt,
	}
	if t.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(t.Metadata))
		for k, v := range t.Metadata {
			clone.Metadata[k] = v
		}
	}
	clone.Result = t.Result.Clone()
	return clone
}
