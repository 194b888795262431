// Package errors provides structured error handling for the Slack agent
// service.
//
// Errors carry a code, a category, and an explicit retryable flag so the
// task executor can decide whether another attempt is worthwhile without
// matching on error strings.
//
// # Error Codes and Categories
//
// Codes identify specific failure types (INITIALIZATION_ERROR,
// TOOL_INVOCATION_ERROR, SDK_ERROR, TIMEOUT_ERROR, VALIDATION_ERROR, ...).
// Each code maps to a default category:
//
//   - transient: retry may succeed (SDK, timeout, tool, Slack API errors)
//   - permanent: retry will not help (initialization, validation, not-found)
//   - internal: unexpected failures, retried on the assumption they are
//     transient
//
// # Usage
//
// Create errors with constructors:
//
//	err := errors.Timeout("agent did not respond in time")
//	err := errors.Validation("message must not be empty")
//	err := errors.SlackAPI("chat.postMessage failed", "channel_not_found")
//
// Check retry eligibility without inspecting messages:
//
//	if errors.IsRetryable(err) {
//	    // schedule another attempt
//	}
//
// Wrap errors while preserving classification:
//
//	return errors.Wrap(err, "executing task", errors.WithTaskID(id))
//
// Unclassified errors (anything that is not an *Error) are treated as
// retryable by IsRetryable, matching the executor contract that only
// initialization and validation failures abort the retry loop early.
package errors
