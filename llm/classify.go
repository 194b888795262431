package llm

import (
	"strings"

	"github.com/vinayprograms/slackagent/errors"
)

// classifySDKError converts a raw SDK error into a typed error.
// Billing, quota and auth failures are permanent; everything else from an
// SDK call is treated as transient so the task executor will retry it.
func classifySDKError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if isBillingError(err) || isAuthError(err) {
		return errors.SDK(provider+" request failed: "+err.Error(),
			errors.WithCause(err), errors.WithRetryable(false))
	}
	return errors.SDK(provider+" request failed: "+err.Error(), errors.WithCause(err))
}

// isBillingError checks for billing/payment/quota errors (fatal, no retry).
func isBillingError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "billing") ||
		strings.Contains(errStr, "payment") ||
		strings.Contains(errStr, "credits") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "insufficient") ||
		strings.Contains(errStr, "402") ||
		strings.Contains(errStr, "subscription")
}

// isAuthError checks for authentication failures (fatal, no retry).
func isAuthError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid api key") ||
		strings.Contains(errStr, "authentication")
}
