package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/events"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"go.uber.org/zap"
)

const DefaultMaxMessageLen = 2000

// CustomerLookup finds the customer owning a room.
type CustomerLookup interface {
	Customer(ctx context.Context, roomID string) (chat.Actor, error)
}

// UnreadProtocol applies sends and opens to a room and keeps both unread
// counters consistent with them.
type UnreadProtocol struct {
	repo      repository.ChatRepository
	customers CustomerLookup
	bus       events.Bus
	log       *logger.Logger
	maxLen    int
}

func NewUnreadProtocol(repo repository.ChatRepository, customers CustomerLookup, bus events.Bus, l *logger.Logger, maxLen int) *UnreadProtocol {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}
	return &UnreadProtocol{repo: repo, customers: customers, bus: bus, log: orNopLogger(l), maxLen: maxLen}
}

// OpenRoom marks the room read for the actor's side. Repeating it, or opening
// a room that does not exist yet, changes nothing.
func (p *UnreadProtocol) OpenRoom(ctx context.Context, actor chat.Actor, roomID string) error {
	if err := authorizeRoom(actor, roomID); err != nil {
		return err
	}
	if err := p.repo.ResetUnread(ctx, roomID, actor.Role); err != nil {
		return fmt.Errorf("reset unread for %s: %w", roomID, err)
	}
	publish(ctx, p.bus, p.log, events.NewEvent(events.EventRoomRead, roomID, actor.ID))
	return nil
}

// SendMessage appends text to the room, creating the room on first contact,
// and increments the recipient's unread counter.
func (p *UnreadProtocol) SendMessage(ctx context.Context, actor chat.Actor, roomID, text string) (chat.Message, error) {
	if err := authorizeRoom(actor, roomID); err != nil {
		return chat.Message{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > p.maxLen {
		return chat.Message{}, chapel_errors.ErrInvalidInput
	}

	rec := repository.SendRecord{
		RoomID:    roomID,
		SenderID:  actor.ID,
		Recipient: actor.Role.Opposite(),
		Text:      text,
	}
	counterpart := actor
	if actor.IsAdmin() {
		// The admin may only write into a room that belongs to a customer.
		c, err := p.customers.Customer(ctx, roomID)
		if err != nil {
			return chat.Message{}, fmt.Errorf("customer of room %s: %w", roomID, err)
		}
		counterpart = c
	}
	rec.CustomerName = counterpart.Name
	rec.CustomerAvatar = counterpart.AvatarURL

	msg, err := p.repo.RecordSend(ctx, rec)
	if err != nil {
		return chat.Message{}, fmt.Errorf("record send to %s: %w", roomID, err)
	}

	p.log.InfoCtx(ctx, "chat message sent",
		zap.String("room_id", roomID),
		zap.Uint64("message_id", msg.ID),
		zap.String("recipient", string(rec.Recipient)),
	)
	publish(ctx, p.bus, p.log, events.NewEvent(events.EventMessageCreated, roomID, actor.ID))
	return msg, nil
}

// authorizeRoom checks that actor may act on roomID: a customer only on their
// own room, the admin on any room but never one keyed by the admin's id.
func authorizeRoom(actor chat.Actor, roomID string) error {
	if actor.ID == "" || !actor.Role.Valid() {
		return chapel_errors.ErrUnauthorized
	}
	if strings.TrimSpace(roomID) == "" {
		return chapel_errors.ErrInvalidInput
	}
	if actor.IsAdmin() {
		if roomID == actor.ID {
			return chapel_errors.ErrInvalidInput
		}
		return nil
	}
	if roomID != actor.ID {
		return chapel_errors.ErrForbidden
	}
	return nil
}
