package events

import (
	"context"
	"fmt"
)

// Event names carried on presence channels.
const (
	EventTyping = "typing"
	EventJoined = "member_joined"
	EventLeft   = "member_left"
)

// Scopes that carry presence channels.
const (
	ScopeWorkspace = "workspace"
	ScopeDocument  = "document"
	ScopeMeeting   = "meeting"
)

// Event is the wire envelope published to a channel. Payload keys are
// event-specific; typing events carry at least userId, userName,
// channelId and isTyping.
type Event struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

// ChannelName derives the canonical presence channel for a scoped
// resource, e.g. ChannelName(ScopeWorkspace, "42") == "presence-workspace-42".
// Derivation is pure; authorization happens before anything is
// published here.
func ChannelName(scope, id string) string {
	return fmt.Sprintf("presence-%s-%s", scope, id)
}

// Broadcaster delivers events to whoever is subscribed to a channel at
// publish time. Delivery is best-effort and at-most-once; there is no
// retry and no replay for late subscribers.
type Broadcaster interface {
	// Publish sends one event. The error is returned to the caller so
	// it can decide whether a lost signal matters.
	Publish(ctx context.Context, channel string, event Event) error

	// MembersOf returns the principals currently present on a channel.
	// A transport failure returns a non-nil error; callers must not
	// confuse that with an empty membership.
	MembersOf(ctx context.Context, channel string) ([]string, error)
}

// Subscriber feeds inbound channel traffic to a handler, used by the
// websocket hub to bridge events to connected clients. The pattern may
// contain glob wildcards ("presence-*"); the handler receives the
// concrete channel each event arrived on.
type Subscriber interface {
	Subscribe(ctx context.Context, pattern string, handler func(channel string, event Event)) error
}

// PresenceRegistry tracks channel membership as sessions come and go.
type PresenceRegistry interface {
	Join(ctx context.Context, channel, memberID string) error
	Leave(ctx context.Context, channel, memberID string) error
}
