package services

import (
	"context"
	"fmt"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/events"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"go.uber.org/zap"
)

// ConversationLifecycle holds the admin-only destructive room operations.
type ConversationLifecycle struct {
	repo repository.ChatRepository
	bus  events.Bus
	log  *logger.Logger
}

func NewConversationLifecycle(repo repository.ChatRepository, bus events.Bus, l *logger.Logger) *ConversationLifecycle {
	return &ConversationLifecycle{repo: repo, bus: bus, log: orNopLogger(l)}
}

// ClearConversation deletes every message of the room and resets its
// metadata. The room itself stays.
func (s *ConversationLifecycle) ClearConversation(ctx context.Context, actor chat.Actor, roomID string) error {
	if err := requireAdmin(actor, roomID); err != nil {
		return err
	}
	if _, err := s.repo.ClearRoom(ctx, roomID); err != nil {
		return fmt.Errorf("clear room %s: %w", roomID, err)
	}
	s.log.InfoCtx(ctx, "conversation cleared", zap.String("room_id", roomID))
	publish(ctx, s.bus, s.log, events.NewEvent(events.EventRoomCleared, roomID, actor.ID))
	return nil
}

// DeleteRoom removes the room together with all of its messages.
func (s *ConversationLifecycle) DeleteRoom(ctx context.Context, actor chat.Actor, roomID string) error {
	if err := requireAdmin(actor, roomID); err != nil {
		return err
	}
	if err := s.repo.DeleteRoom(ctx, roomID); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	s.log.InfoCtx(ctx, "room deleted", zap.String("room_id", roomID))
	publish(ctx, s.bus, s.log, events.NewEvent(events.EventRoomDeleted, roomID, actor.ID))
	return nil
}

func requireAdmin(actor chat.Actor, roomID string) error {
	if !actor.IsAdmin() {
		return chapel_errors.ErrForbidden
	}
	if roomID == "" {
		return chapel_errors.ErrInvalidInput
	}
	return nil
}
