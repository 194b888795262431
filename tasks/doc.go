// Package tasks provides the task registry and executor for the Slack
// agent service.
//
// A Task is one unit of submitted agent work, tracked by a random ID and
// moved through a small state machine:
//
//	pending → running ⇄ retrying → completed | failed
//
// with any non-terminal task forced to cancelled on executor shutdown.
// Completed, failed, and cancelled are terminal; nothing leaves a terminal
// state.
//
// # Store
//
// Store is the only shared mutable state. Every read and write of a task
// record goes through it, serialized on one mutex, and callers always
// receive deep copies. The executor is the sole writer of status, result,
// retry count, and last error.
//
// # Executor
//
// Executor drives the retry loop around the agent adapter:
//
//	exec := tasks.NewExecutor(agent,
//	    tasks.WithRetryConfig(retry.DefaultConfig()),
//	)
//	exec.Start(ctx)
//
//	id, _ := exec.SubmitTask("summarize #general", nil)
//	result, _ := exec.ExecuteTask(ctx, id)
//
// Each attempt invokes the agent once. Failures are classified through the
// errors package: initialization and validation errors abort immediately,
// everything else retries with jittered exponential backoff until the cap.
// Errors during attempts are captured into the task record rather than
// propagated; only not-found and precondition errors surface to callers.
//
// Execution is at-most-once-in-flight per task. Claiming a task flips it
// from pending/retrying to running in one store operation, so a concurrent
// duplicate ExecuteTask call observes the in-progress state and returns
// without touching the agent.
//
// # Shutdown
//
// Stop cancels every non-terminal task. The final write of an in-flight
// execution re-checks the record's status, so a cancelled task is never
// resurrected into completed or failed.
package tasks
