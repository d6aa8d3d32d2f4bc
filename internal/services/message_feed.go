package services

import (
	"context"
	"errors"
	"fmt"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/events"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"go.uber.org/zap"
)

const DefaultFeedLimit = 50

// MessageFeed serves the bounded, oldest-first window of a room's messages.
type MessageFeed struct {
	repo         repository.ChatRepository
	bus          events.Bus
	log          *logger.Logger
	defaultLimit int
}

func NewMessageFeed(repo repository.ChatRepository, bus events.Bus, l *logger.Logger, defaultLimit int) *MessageFeed {
	if defaultLimit <= 0 {
		defaultLimit = DefaultFeedLimit
	}
	if defaultLimit > MaxFeedLimit {
		defaultLimit = MaxFeedLimit
	}
	return &MessageFeed{repo: repo, bus: bus, log: orNopLogger(l), defaultLimit: defaultLimit}
}

func (f *MessageFeed) Limit(limit int) int {
	if limit <= 0 {
		return f.defaultLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// Recent returns the newest limit messages of the room, oldest first.
func (f *MessageFeed) Recent(ctx context.Context, actor chat.Actor, roomID string, limit int) ([]chat.Message, error) {
	if err := authorizeRoom(actor, roomID); err != nil {
		return nil, err
	}
	msgs, err := f.repo.ListRecentMessages(ctx, roomID, f.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", roomID, err)
	}
	return msgs, nil
}

// Snapshot reads the room's current feed. A room the actor may not see, or
// one that no longer exists, yields an empty snapshot with Exists false.
func (f *MessageFeed) Snapshot(ctx context.Context, actor chat.Actor, roomID string, limit int) (chat.FeedSnapshot, error) {
	empty := chat.FeedSnapshot{RoomID: roomID, Messages: []chat.Message{}}
	if err := authorizeRoom(actor, roomID); err != nil {
		if errors.Is(err, chapel_errors.ErrForbidden) {
			return empty, nil
		}
		return empty, err
	}

	if _, err := f.repo.GetRoom(ctx, roomID); err != nil {
		if IsNotFound(err) {
			return empty, nil
		}
		return empty, fmt.Errorf("get room %s: %w", roomID, err)
	}

	msgs, err := f.repo.ListRecentMessages(ctx, roomID, f.Limit(limit))
	if err != nil {
		return empty, fmt.Errorf("list messages of %s: %w", roomID, err)
	}
	return chat.FeedSnapshot{RoomID: roomID, Exists: true, Messages: msgs}, nil
}

// Subscribe emits the room's feed now and after every change to the room,
// until ctx is done. Only the latest snapshot is kept for a slow reader.
// A bus failure degrades to a single snapshot.
func (f *MessageFeed) Subscribe(ctx context.Context, actor chat.Actor, roomID string, limit int) (<-chan chat.FeedSnapshot, error) {
	out := make(chan chat.FeedSnapshot, 1)
	err := authorizeRoom(actor, roomID)
	if errors.Is(err, chapel_errors.ErrForbidden) {
		out <- chat.FeedSnapshot{RoomID: roomID, Messages: []chat.Message{}}
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	changes, err := f.bus.Subscribe(ctx, events.RoomChannel(roomID))
	if err != nil {
		// A nil channel never fires: one snapshot, then wait for ctx.
		f.log.ErrorCtx(ctx, "feed updates unavailable", zap.String("room_id", roomID), zap.Error(err))
		changes = nil
	}

	go func() {
		defer close(out)

		emit := func() {
			snap, err := f.Snapshot(ctx, actor, roomID, limit)
			if err != nil {
				if ctx.Err() == nil {
					f.log.WarnCtx(ctx, "feed refresh failed", zap.String("room_id", roomID), zap.Error(err))
				}
				return
			}
			offerLatest(out, snap)
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok || !drain(changes) {
					return
				}
				emit()
			}
		}
	}()
	return out, nil
}
