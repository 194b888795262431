// Package slack provides a minimal client for the Slack Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vinayprograms/slackagent/auth"
	"github.com/vinayprograms/slackagent/errors"
	"github.com/vinayprograms/slackagent/ratelimit"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

const defaultTimeout = 30 * time.Second

// Client calls the Slack Web API. A single underlying http.Client is
// shared across calls for connection pooling. Safe for concurrent use.
type Client struct {
	baseURL string
	auth    auth.Provider
	http    *http.Client
	limiter *ratelimit.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithRateLimiter throttles outbound API calls through the limiter's
// slack.api resource.
func WithRateLimiter(limiter *ratelimit.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient creates a Slack client using the given auth provider.
func NewClient(authProvider auth.Provider, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		auth:    authProvider,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// postMessageRequest is the chat.postMessage request body.
type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// SendMessage posts a message to a channel, user ID, or channel name.
// Returns the decoded API response. Failures surface as SLACK_API_ERROR
// typed errors carrying the provider error code when Slack supplied one.
func (c *Client) SendMessage(ctx context.Context, channel, text string) (map[string]interface{}, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, ratelimit.ResourceSlackAPI); err != nil {
			return nil, errors.Wrap(err, "waiting for slack rate limit")
		}
	}

	body, err := json.Marshal(postMessageRequest{Channel: channel, Text: text})
	if err != nil {
		return nil, errors.Internal("encoding message payload", errors.WithCause(err))
	}

	url := c.baseURL + "/chat.postMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Internal("building request", errors.WithCause(err))
	}
	for k, v := range c.auth.AuthHeaders() {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.SlackAPI(
			fmt.Sprintf("request failed: %v", err),
			"request_error",
			errors.WithCause(err),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.SlackAPI(
			fmt.Sprintf("HTTP error occurred: %d", resp.StatusCode),
			"http_error",
		)
	}

	data := make(map[string]interface{})
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.SlackAPI("decoding response", "decode_error", errors.WithCause(err))
	}

	// Every Web API response carries an "ok" envelope field.
	if ok, _ := data["ok"].(bool); !ok {
		code, _ := data["error"].(string)
		if code == "" {
			code = "unknown_error"
		}
		return nil, errors.SlackAPI(fmt.Sprintf("slack API error: %s", code), code)
	}

	return data, nil
}
