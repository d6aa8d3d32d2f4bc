package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"chapel-site/internal/domain/chat"
	chapel_errors "chapel-site/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxFeedWindow = 200

type PostgresChatRepository struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewChatRepository(db *gorm.DB) *PostgresChatRepository {
	return &PostgresChatRepository{db: db, clock: chapel_errors.NowUTC}
}

// SetClock replaces the time source used for store-assigned timestamps.
func (r *PostgresChatRepository) SetClock(clock func() time.Time) {
	if clock != nil {
		r.clock = clock
	}
}

func (r *PostgresChatRepository) GetRoom(ctx context.Context, roomID string) (chat.Room, error) {
	var room chat.Room
	err := r.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error
	if err != nil {
		return chat.Room{}, mapNotFound(err)
	}
	room.Normalize()
	return room, nil
}

func (r *PostgresChatRepository) ListRooms(ctx context.Context) ([]chat.Room, error) {
	var rooms []chat.Room
	err := r.db.WithContext(ctx).
		Order("last_message_at DESC").
		Order("id ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		rooms[i].Normalize()
	}
	return rooms, nil
}

func (r *PostgresChatRepository) CountRoomsUnreadByAdmin(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&chat.Room{}).
		Where("unread_for_admin > 0").
		Count(&n).Error
	return n, err
}

// ResetUnread zeroes the counter owned by role. A missing room is left alone.
func (r *PostgresChatRepository) ResetUnread(ctx context.Context, roomID string, role chat.Role) error {
	if !role.Valid() {
		return chapel_errors.ErrInvalidInput
	}
	return r.db.WithContext(ctx).
		Model(&chat.Room{}).
		Where("id = ?", roomID).
		UpdateColumn(chat.UnreadColumn(role), 0).Error
}

// RecordSend upserts the room, increments the recipient counter in place and
// appends the message, all in one transaction. The increment is evaluated by
// the database against the stored value, so concurrent senders never
// overwrite each other's count.
func (r *PostgresChatRepository) RecordSend(ctx context.Context, rec SendRecord) (chat.Message, error) {
	rec.RoomID = strings.TrimSpace(rec.RoomID)
	if rec.RoomID == "" || rec.SenderID == "" || !rec.Recipient.Valid() {
		return chat.Message{}, chapel_errors.ErrInvalidInput
	}

	at := r.clock()
	msg := chat.Message{
		RoomID:    rec.RoomID,
		SenderID:  rec.SenderID,
		Text:      rec.Text,
		CreatedAt: at,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := chat.Room{
			ID:             rec.RoomID,
			LastMessageAt:  at,
			CustomerName:   rec.CustomerName,
			CustomerAvatar: rec.CustomerAvatar,
		}
		seed.Normalize()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		counter := chat.UnreadColumn(rec.Recipient)
		updates := map[string]interface{}{
			"last_message":    rec.Text,
			"last_message_at": at,
			"updated_at":      at,
			counter:           gorm.Expr(counter+" + ?", 1),
		}
		if name := strings.TrimSpace(rec.CustomerName); name != "" {
			updates["customer_name"] = name
		}
		if avatar := strings.TrimSpace(rec.CustomerAvatar); avatar != "" {
			updates["customer_avatar"] = avatar
		}
		res := tx.Model(&chat.Room{}).Where("id = ?", rec.RoomID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return chapel_errors.ErrNotFound
		}

		return tx.Create(&msg).Error
	})
	if err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

// ListRecentMessages returns the newest limit messages of a room, oldest first.
func (r *PostgresChatRepository) ListRecentMessages(ctx context.Context, roomID string, limit int) ([]chat.Message, error) {
	limit = clampLimit(limit, 50, maxFeedWindow)

	var msgs []chat.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *PostgresChatRepository) CountMessages(ctx context.Context, roomID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("room_id = ?", roomID).
		Count(&n).Error
	return n, err
}

// ClearRoom deletes the whole feed and resets the room metadata in one
// transaction; nothing is written when the room does not exist.
func (r *PostgresChatRepository) ClearRoom(ctx context.Context, roomID string) (chat.Room, error) {
	var room chat.Room
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", roomID).First(&room).Error; err != nil {
			return mapNotFound(err)
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&chat.Message{}).Error; err != nil {
			return err
		}

		at := r.clock()
		updates := map[string]interface{}{
			"last_message":        chat.ClearedSentinel,
			"last_message_at":     at,
			"unread_for_admin":    0,
			"unread_for_customer": 0,
			"updated_at":          at,
		}
		if err := tx.Model(&chat.Room{}).Where("id = ?", roomID).Updates(updates).Error; err != nil {
			return err
		}
		room.LastMessage = chat.ClearedSentinel
		room.LastMessageAt = at
		room.UnreadForAdmin = 0
		room.UnreadForCustomer = 0
		room.UpdatedAt = at
		return nil
	})
	if err != nil {
		return chat.Room{}, err
	}
	return room, nil
}

// DeleteRoom removes the room and every message it owns.
func (r *PostgresChatRepository) DeleteRoom(ctx context.Context, roomID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&chat.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", roomID).Delete(&chat.Room{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return chapel_errors.ErrNotFound
		}
		return nil
	})
}

// IsNotFound reports whether err means the addressed record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, chapel_errors.ErrNotFound)
}
