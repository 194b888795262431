package tools

import (
	"context"

	"github.com/vinayprograms/slackagent/slack"
)

// Messenger is the outbound messaging surface the Slack tools need.
// *slack.Client satisfies it; tests substitute a fake.
type Messenger interface {
	SendMessage(ctx context.Context, channel, text string) (map[string]interface{}, error)
}

var _ Messenger = (*slack.Client)(nil)

// NewSlackRegistry builds a registry with the Slack messaging tools backed
// by the given client. The client is an explicit dependency; tools never
// reach for shared global state.
func NewSlackRegistry(client Messenger) *Registry {
	registry := NewRegistry()

	registry.Register(&Tool{
		Name:        "send_user_message",
		Description: "Send a direct message to a Slack user by user ID.",
		Args:        []string{"user_id", "text"},
		Handler: func(ctx context.Context, args map[string]string) (map[string]interface{}, error) {
			return client.SendMessage(ctx, args["user_id"], args["text"])
		},
	})

	registry.Register(&Tool{
		Name:        "send_channel_message",
		Description: "Send a message to a Slack channel by channel ID.",
		Args:        []string{"channel_id", "text"},
		Handler: func(ctx context.Context, args map[string]string) (map[string]interface{}, error) {
			return client.SendMessage(ctx, args["channel_id"], args["text"])
		},
	})

	return registry
}
