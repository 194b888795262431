package tasks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/slackagent/errors"
	"github.com/vinayprograms/slackagent/logging"
	"github.com/vinayprograms/slackagent/retry"
)

// CancelledMessage is the result message written to tasks cancelled by
// executor shutdown.
const CancelledMessage = "Task cancelled due to executor shutdown"

// Agent is the adapter the executor invokes once per attempt.
// Implementations classify their failures through the errors package so
// the executor can tell retryable errors from fatal ones.
type Agent interface {
	// Initialize prepares the agent for processing. Called by Start.
	Initialize(ctx context.Context) error

	// Shutdown releases agent resources. Called by Stop.
	Shutdown(ctx context.Context) error

	// ProcessMessage handles one message and returns the response payload.
	ProcessMessage(ctx context.Context, message string) (map[string]interface{}, error)
}

// Executor orchestrates task submission, the per-task retry loop, status
// queries, and lifecycle. It is safe for concurrent use; the store is the
// only shared mutable state and every record access goes through it.
type Executor struct {
	agent   Agent
	store   *Store
	retry   retry.Config
	log     *logging.Logger
	idGen   func() string
	running atomic.Bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRetryConfig sets the retry policy. The policy is fixed for the
// lifetime of the executor.
func WithRetryConfig(cfg retry.Config) ExecutorOption {
	return func(e *Executor) {
		e.retry = cfg
	}
}

// WithLogger sets the logger used for execution progress.
func WithLogger(log *logging.Logger) ExecutorOption {
	return func(e *Executor) {
		e.log = log.WithComponent("executor")
	}
}

// WithIDGenerator sets a custom task ID generator.
func WithIDGenerator(gen func() string) ExecutorOption {
	return func(e *Executor) {
		e.idGen = gen
	}
}

// NewExecutor creates an executor around the given agent adapter.
// The agent is an explicit dependency; nothing is pulled from globals.
func NewExecutor(agent Agent, opts ...ExecutorOption) *Executor {
	e := &Executor{
		agent: agent,
		store: NewStore(),
		retry: retry.DefaultConfig(),
		log:   logging.New().WithComponent("executor"),
		idGen: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsRunning reports whether the executor is accepting work.
func (e *Executor) IsRunning() bool {
	return e.running.Load()
}

// Start initializes the agent adapter and marks the executor as accepting
// work. Calling Start twice is safe.
func (e *Executor) Start(ctx context.Context) error {
	if err := e.agent.Initialize(ctx); err != nil {
		return errors.Wrap(err, "starting executor")
	}
	e.running.Store(true)
	e.log.Info("executor started")
	return nil
}

// Stop marks the executor as non-accepting, shuts down the agent, and
// cancels every task still in a non-terminal state. An execution already
// past its final store write completes normally; everything else ends up
// CANCELLED with a shutdown result.
func (e *Executor) Stop(ctx context.Context) error {
	e.running.Store(false)

	err := e.agent.Shutdown(ctx)

	cancelled := e.store.cancelActive(&Result{
		Success: false,
		Message: CancelledMessage,
		Error:   "Executor shutdown",
	})
	for range cancelled {
		tasksCancelled.Inc()
	}
	e.log.Info("executor stopped", map[string]interface{}{
		"cancelled": len(cancelled),
	})

	if err != nil {
		return errors.Wrap(err, "shutting down agent")
	}
	return nil
}

// SubmitTask stores a new PENDING task and returns its ID.
// Fails with a precondition error if the executor has not been started.
func (e *Executor) SubmitTask(message string, metadata map[string]interface{}) (string, error) {
	if !e.running.Load() {
		return "", errors.Precondition("executor is not running, call Start first")
	}

	id := e.idGen()
	e.store.Set(id, &Task{
		ID:        id,
		Message:   message,
		Metadata:  metadata,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	})
	tasksSubmitted.Inc()
	e.log.Debug("task submitted", map[string]interface{}{"task_id": id})
	return id, nil
}

// TaskStatus returns the current status of a task.
func (e *Executor) TaskStatus(id string) (Status, error) {
	task, ok := e.store.Get(id)
	if !ok {
		return "", errors.NotFound(id)
	}
	return task.Status, nil
}

// TaskResult returns the stored result of a task, which is nil until the
// task reaches a terminal state.
func (e *Executor) TaskResult(id string) (*Result, error) {
	task, ok := e.store.Get(id)
	if !ok {
		return nil, errors.NotFound(id)
	}
	return task.Result, nil
}

// ExecuteTask runs the retry loop for a submitted task.
//
// Execution is at-most-once-in-flight per task: if the task is not PENDING
// or RETRYING the stored state is returned without touching the agent, so a
// concurrent duplicate call can never double-invoke the adapter.
func (e *Executor) ExecuteTask(ctx context.Context, id string) (*Result, error) {
	if !e.running.Load() {
		return nil, errors.Precondition("executor is not running")
	}

	task, started, found := e.store.beginExecution(id)
	if !found {
		return nil, errors.NotFound(id)
	}
	if !started {
		if task.Result != nil {
			return task.Result, nil
		}
		return &Result{
			Success: false,
			Message: "Task is not in pending or retrying state",
			Error:   fmt.Sprintf("Current status: %s", task.Status),
		}, nil
	}

	var lastErr error
	attempts := 0

loop:
	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		e.log.Debug("executing task", map[string]interface{}{
			"task_id": id,
			"attempt": fmt.Sprintf("%d/%d", attempt+1, e.retry.MaxRetries+1),
		})

		data, err := e.agent.ProcessMessage(ctx, task.Message)
		if err == nil {
			result := &Result{
				Success: true,
				Message: "Task completed successfully",
				Data:    data,
			}
			if !e.store.finish(id, StatusCompleted, result) {
				// Cancelled while the attempt was in flight; the stored
				// record wins.
				return e.storedResult(id, result), nil
			}
			tasksCompleted.Inc()
			return result, nil
		}

		lastErr = err
		attempts = e.store.recordFailure(id, err.Error())

		if !errors.IsRetryable(err) || attempt >= e.retry.MaxRetries {
			e.log.Warn("task failed", map[string]interface{}{
				"task_id":  id,
				"attempts": attempts,
				"error":    err.Error(),
			})
			break
		}

		delay := e.retry.Delay(attempt)
		e.log.Info("task attempt failed, retrying", map[string]interface{}{
			"task_id": id,
			"attempt": attempts,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		if !e.store.setActiveStatus(id, StatusRetrying) {
			break // cancelled under us
		}
		taskRetries.Inc()

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break loop
		case <-time.After(delay):
		}

		if !e.store.setActiveStatus(id, StatusRunning) {
			break // cancelled during the backoff sleep
		}
	}

	errMsg := "Unknown error"
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	result := &Result{
		Success: false,
		Message: fmt.Sprintf("Task execution failed after %d attempts", attempts),
		Error:   errMsg,
	}
	if !e.store.finish(id, StatusFailed, result) {
		return e.storedResult(id, result), nil
	}
	tasksFailed.Inc()
	return result, nil
}

// RunTask submits a task and immediately executes it.
func (e *Executor) RunTask(ctx context.Context, message string, metadata map[string]interface{}) (*Result, error) {
	id, err := e.SubmitTask(message, metadata)
	if err != nil {
		return nil, err
	}
	return e.ExecuteTask(ctx, id)
}

// ListTasks returns a snapshot of tasks, optionally filtered by status.
// An empty status returns every task.
func (e *Executor) ListTasks(status Status) []*Task {
	if status == "" {
		return e.store.ListAll()
	}
	return e.store.ListByStatus(status)
}

// Store exposes the underlying task store.
func (e *Executor) Store() *Store {
	return e.store
}

// storedResult returns the record's stored result when a terminal write
// lost the race with cancellation, falling back to the computed result.
func (e *Executor) storedResult(id string, fallback *Result) *Result {
	if task, ok := e.store.Get(id); ok && task.Result != nil {
		return task.Result
	}
	return fallback
}
