package events

import (
	"context"
	"time"
)

// Event types emitted on the post lifecycle.
const (
	TypePostPublished          = "post.published"
	TypePostPartiallyPublished = "post.partially_published"
	TypePostFailed             = "post.failed"
	TypePostArchived           = "post.archived"
)

// ChannelOutcome is the per-channel summary carried in an event.
type ChannelOutcome struct {
	State          string `json:"state"`
	Attempts       int    `json:"attempts"`
	ExternalPostID string `json:"external_post_id,omitempty"`
	FailureReason  string `json:"failure_reason,omitempty"`
}

// PostEvent is the payload published to the message bus when a post
// reaches a terminal or partially terminal state.
type PostEvent struct {
	Type       string                    `json:"type"`
	PostID     string                    `json:"post_id"`
	PropertyID string                    `json:"property_id"`
	Status     string                    `json:"status"`
	Channels   map[string]ChannelOutcome `json:"channels"`
	OccurredAt time.Time                 `json:"occurred_at"`
}

// Publisher pushes post lifecycle events to downstream consumers (CRM
// timeline, notification workers).
type Publisher interface {
	Publish(ctx context.Context, event PostEvent) error
	Close() error
}

// NoopPublisher drops events. Used when no message bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event PostEvent) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }
