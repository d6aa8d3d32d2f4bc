package repository

import (
	"context"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/contact"
	"chapel-site/internal/domain/review"
	"chapel-site/internal/domain/user"
)

// SendRecord carries everything the store needs to apply one chat send:
// the room metadata merge, the recipient counter increment and the message
// append. The message timestamp is assigned by the store.
type SendRecord struct {
	RoomID    string
	SenderID  string
	Recipient chat.Role
	Text      string

	// Counterpart display info, merged only when non-empty.
	CustomerName   string
	CustomerAvatar string
}

type ChatRepository interface {
	GetRoom(ctx context.Context, roomID string) (chat.Room, error)
	ListRooms(ctx context.Context) ([]chat.Room, error)
	CountRoomsUnreadByAdmin(ctx context.Context) (int64, error)

	ResetUnread(ctx context.Context, roomID string, role chat.Role) error
	RecordSend(ctx context.Context, rec SendRecord) (chat.Message, error)

	ListRecentMessages(ctx context.Context, roomID string, limit int) ([]chat.Message, error)
	CountMessages(ctx context.Context, roomID string) (int64, error)

	ClearRoom(ctx context.Context, roomID string) (chat.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) error
}

type ContactRepository interface {
	Create(ctx context.Context, s *contact.Submission) error
	List(ctx context.Context, page, limit int) ([]contact.Submission, int64, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *review.Review) error
	GetByID(ctx context.Context, id uint64) (review.Review, error)
	List(ctx context.Context, page, limit int) ([]review.Review, int64, error)
	Delete(ctx context.Context, id uint64) error
}
