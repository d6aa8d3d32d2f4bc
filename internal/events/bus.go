package events

import (
	"context"
	"sync"
)

// subscriberBuffer bounds pending wake-ups per subscriber. Events beyond it
// are dropped: a full buffer already guarantees the subscriber re-reads.
const subscriberBuffer = 16

// Bus fans room events out to live subscribers.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe delivers events published on any of channels until ctx is
	// done, then closes the returned channel.
	Subscribe(ctx context.Context, channels ...string) (<-chan Event, error)
}

type localSubscriber struct {
	ch chan Event
}

// LocalBus is an in-process Bus for single-instance deployments and tests.
type LocalBus struct {
	mu       sync.RWMutex
	resolver ChannelResolver
	channels map[string]map[*localSubscriber]struct{}
}

func NewLocalBus(resolver ChannelResolver) *LocalBus {
	if resolver == nil {
		resolver = NewRoomChannelResolver()
	}
	return &LocalBus{
		resolver: resolver,
		channels: make(map[string]map[*localSubscriber]struct{}),
	}
}

func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[*localSubscriber]struct{})
	for _, channel := range b.resolver.ResolveChannels(event) {
		for sub := range b.channels[channel] {
			if _, dup := seen[sub]; dup {
				continue
			}
			seen[sub] = struct{}{}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, channels ...string) (<-chan Event, error) {
	sub := &localSubscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	for _, channel := range channels {
		if _, ok := b.channels[channel]; !ok {
			b.channels[channel] = make(map[*localSubscriber]struct{})
		}
		b.channels[channel][sub] = struct{}{}
	}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		for _, channel := range channels {
			if subscribers, ok := b.channels[channel]; ok {
				delete(subscribers, sub)
				if len(subscribers) == 0 {
					delete(b.channels, channel)
				}
			}
		}
		b.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch, nil
}

// SubscriberCount returns the number of subscriptions on channel.
func (b *LocalBus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}
