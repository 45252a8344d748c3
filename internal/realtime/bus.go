package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event names published on private channels.
const (
	EventSubmissionValidated = "submission.validated"
	EventSubmissionRefused   = "submission.refused"
	EventAccountCreated      = "account.created"
	EventAssignmentDue       = "assignment.due"
	EventNewMessage          = "message.new"
)

const (
	userChannelPrefix       = "private-user."
	discussionChannelPrefix = "private-discussion."
)

// UserChannel names the private channel only the given user may subscribe to.
func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

// DiscussionChannel names the private channel for a discussion thread.
func DiscussionChannel(discussionID uuid.UUID) string {
	return discussionChannelPrefix + discussionID.String()
}

// ParseChannel splits a channel name into its kind prefix and key id.
// Returns ok=false for names outside the private-channel contract.
func ParseChannel(channel string) (kind string, id uuid.UUID, ok bool) {
	switch {
	case strings.HasPrefix(channel, userChannelPrefix):
		kind = "user"
		channel = strings.TrimPrefix(channel, userChannelPrefix)
	case strings.HasPrefix(channel, discussionChannelPrefix):
		kind = "discussion"
		channel = strings.TrimPrefix(channel, discussionChannelPrefix)
	default:
		return "", uuid.Nil, false
	}

	parsed, err := uuid.Parse(channel)
	if err != nil {
		return "", uuid.Nil, false
	}
	return kind, parsed, true
}

// Bus publishes events to private channels. Publishing is best-effort: a
// failed publish is reported to the caller for logging, never retried here.
type Bus interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// RedisBus broadcasts over Redis pub/sub.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, channel, event string, payload any) error {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return nil
}

// NopBus discards all events. Used when Redis is unavailable and in tests.
type NopBus struct{}

func (NopBus) Publish(ctx context.Context, channel, event string, payload any) error {
	return nil
}

var (
	_ Bus = (*RedisBus)(nil)
	_ Bus = NopBus{}
)
