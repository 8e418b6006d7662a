package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const membersKeyPrefix = "presence:members:"

// RedisBroadcaster implements Broadcaster, Subscriber and
// PresenceRegistry on a single redis client: pub/sub for delivery,
// one set per channel for membership.
type RedisBroadcaster struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisBroadcaster(client *redis.Client, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, log: log}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Single shot. Zero receivers is still a successful publish.
	return b.client.Publish(ctx, channel, string(data)).Err()
}

func (b *RedisBroadcaster) MembersOf(ctx context.Context, channel string) ([]string, error) {
	members, err := b.client.SMembers(ctx, membersKeyPrefix+channel).Result()
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []string{}
	}
	return members, nil
}

func (b *RedisBroadcaster) Join(ctx context.Context, channel, memberID string) error {
	return b.client.SAdd(ctx, membersKeyPrefix+channel, memberID).Err()
}

func (b *RedisBroadcaster) Leave(ctx context.Context, channel, memberID string) error {
	return b.client.SRem(ctx, membersKeyPrefix+channel, memberID).Err()
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, pattern string, handler func(string, Event)) error {
	pubsub := b.client.PSubscribe(ctx, pattern)
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.log.Error("failed to unmarshal event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				handler(msg.Channel, event)
			}
		}
	}()

	return nil
}
