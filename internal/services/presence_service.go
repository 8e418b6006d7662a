package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/apperr"
	"github.com/colabhq/workspace-core/internal/events"
)

// PresenceService publishes ephemeral collaboration signals. It does
// no authorization of its own; the access guard runs upstream and
// channel names are derived only from identifiers the actor was
// already authorized for.
type PresenceService struct {
	broadcaster events.Broadcaster
	log         *zap.Logger
}

func NewPresenceService(broadcaster events.Broadcaster, log *zap.Logger) *PresenceService {
	return &PresenceService{broadcaster: broadcaster, log: log}
}

// NotifyTyping broadcasts a typing indicator to everyone currently on
// the workspace presence channel. Single shot: a transport failure is
// returned to the caller and the signal is lost.
//
// Typing events are deliberately exempt from audit recording; at
// keystroke frequency they would flood the store with no forensic value.
func (s *PresenceService) NotifyTyping(ctx context.Context, actor Actor, workspaceID, channelID string, isTyping bool) error {
	channel := events.ChannelName(events.ScopeWorkspace, workspaceID)

	err := s.broadcaster.Publish(ctx, channel, events.Event{
		Name: events.EventTyping,
		Payload: map[string]any{
			"userId":    actor.ID.String(),
			"userName":  actor.Name,
			"channelId": channelID,
			"isTyping":  isTyping,
		},
	})
	if err != nil {
		return apperr.Wrap(apperr.UpstreamUnavailable, "broadcast transport unavailable", err)
	}
	return nil
}

// ChannelMembers reports who is currently present on the workspace
// channel. An unavailable transport is an error, distinct from an
// empty (but answerable) membership.
func (s *PresenceService) ChannelMembers(ctx context.Context, workspaceID string) ([]string, error) {
	channel := events.ChannelName(events.ScopeWorkspace, workspaceID)

	members, err := s.broadcaster.MembersOf(ctx, channel)
	if err != nil {
		return nil, apperr.Wrap(apperr.UpstreamUnavailable, "presence membership unavailable", err)
	}
	return members, nil
}
