// Package auth provides authentication providers for outbound API calls.
package auth

import (
	"strings"
)

// Provider supplies credentials for API requests.
type Provider interface {
	// AuthHeaders returns the HTTP headers that authenticate a request.
	AuthHeaders() map[string]string

	// Validate reports whether the credentials look properly configured.
	Validate() bool

	// Token returns the raw credential.
	Token() string
}

// BearerToken authenticates Slack Web API requests with a bot OAuth token
// (xoxb-...).
type BearerToken struct {
	token string
}

// NewBearerToken creates a bearer token provider.
func NewBearerToken(token string) *BearerToken {
	return &BearerToken{token: token}
}

// AuthHeaders returns the Authorization header for the token.
func (b *BearerToken) AuthHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + b.token,
	}
}

// Validate checks the token is non-empty and carries the bot-token prefix.
func (b *BearerToken) Validate() bool {
	if b.token == "" {
		return false
	}
	return strings.HasPrefix(b.token, "xoxb-")
}

// Token returns the raw token.
func (b *BearerToken) Token() string {
	return b.token
}
