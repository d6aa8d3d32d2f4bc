package services

import (
	"context"
	"fmt"
	"strings"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/events"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"go.uber.org/zap"
)

// OwnRoomAlias lets a customer address their room without knowing its id.
const OwnRoomAlias = "me"

// RoomDirectory serves the list of rooms an actor can see.
type RoomDirectory struct {
	repo repository.ChatRepository
	bus  events.Bus
	log  *logger.Logger
}

func NewRoomDirectory(repo repository.ChatRepository, bus events.Bus, l *logger.Logger) *RoomDirectory {
	return &RoomDirectory{repo: repo, bus: bus, log: orNopLogger(l)}
}

// ListRooms returns every room newest activity first for the admin, and at
// most the customer's own room otherwise.
func (d *RoomDirectory) ListRooms(ctx context.Context, actor chat.Actor) ([]chat.Room, error) {
	if actor.IsAdmin() {
		rooms, err := d.repo.ListRooms(ctx)
		if err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		return rooms, nil
	}

	room, err := d.repo.GetRoom(ctx, actor.ID)
	if err != nil {
		if IsNotFound(err) {
			return []chat.Room{}, nil
		}
		return nil, fmt.Errorf("get room %s: %w", actor.ID, err)
	}
	return []chat.Room{room}, nil
}

// ResolveRoom maps a requested room id to the one the actor may address.
func (d *RoomDirectory) ResolveRoom(actor chat.Actor, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if actor.ID == "" || !actor.Role.Valid() {
		return "", chapel_errors.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		if requested == "" || requested == OwnRoomAlias || requested == actor.ID {
			return actor.ID, nil
		}
		return "", chapel_errors.ErrForbidden
	}
	if requested == "" || requested == OwnRoomAlias || requested == actor.ID {
		return "", chapel_errors.ErrInvalidInput
	}
	return requested, nil
}

// AdminBadge counts rooms holding unread messages for the admin.
func (d *RoomDirectory) AdminBadge(ctx context.Context) (int64, error) {
	n, err := d.repo.CountRoomsUnreadByAdmin(ctx)
	if err != nil {
		return 0, fmt.Errorf("count unread rooms: %w", err)
	}
	return n, nil
}

// SubscribeRooms emits the actor's room list now and again after every room
// change, until ctx is done. Only the latest list is kept for a slow reader.
// If the bus cannot be subscribed the list is emitted once and the channel
// stays open without updates until ctx is done.
func (d *RoomDirectory) SubscribeRooms(ctx context.Context, actor chat.Actor) (<-chan []chat.Room, error) {
	channel := events.ChannelRooms
	if !actor.IsAdmin() {
		channel = events.RoomChannel(actor.ID)
	}
	changes, err := d.bus.Subscribe(ctx, channel)
	if err != nil {
		d.log.ErrorCtx(ctx, "room updates unavailable", zap.String("actor_id", actor.ID), zap.Error(err))
		changes = nil
	}

	out := make(chan []chat.Room, 1)
	go func() {
		defer close(out)

		emit := func() {
			rooms, err := d.ListRooms(ctx, actor)
			if err != nil {
				if ctx.Err() == nil {
					d.log.WarnCtx(ctx, "room directory refresh failed", zap.String("actor_id", actor.ID), zap.Error(err))
				}
				return
			}
			offerLatest(out, rooms)
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
