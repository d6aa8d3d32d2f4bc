package events

import (
	"context"
	"encoding/json"
	"fmt"

	"chapel-site/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus implements Bus using Redis Pub/Sub so that every API instance
// sees room changes made through any other instance.
type RedisBus struct {
	client   *redis.Client
	resolver ChannelResolver
	log      *logger.Logger
}

func NewRedisBus(client *redis.Client, resolver ChannelResolver, l *logger.Logger) *RedisBus {
	if resolver == nil {
		resolver = NewRoomChannelResolver()
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &RedisBus{client: client, resolver: resolver, log: l}
}

func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	channels := b.resolver.ResolveChannels(event)
	if len(channels) == 0 {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var firstErr error
	for _, channel := range channels {
		if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
			b.log.WarnCtx(ctx, "event publish failed", zap.String("channel", channel), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (b *RedisBus) Subscribe(ctx context.Context, channels ...string) (<-chan Event, error) {
	pubsub := b.client.Subscribe(ctx, channels...)
	// Wait for the subscription confirmation so a dead Redis surfaces here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.log.WarnCtx(ctx, "dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()
	return out, nil
}
