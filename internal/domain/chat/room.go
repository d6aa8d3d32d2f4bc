package chat

import (
	"strings"
	"time"
)

// ClearedSentinel replaces the last message of a room whose history was cleared.
const ClearedSentinel = "Conversation cleared"

// Room is the conversation between the admin and one customer. Its ID is
// the customer's user id.
type Room struct {
	ID                string    `gorm:"primaryKey;size:64" json:"id"`
	LastMessage       string    `gorm:"type:text;not null;default:''" json:"last_message"`
	LastMessageAt     time.Time `gorm:"index;not null" json:"last_message_at"`
	UnreadForAdmin    int64     `gorm:"not null;default:0" json:"unread_for_admin"`
	UnreadForCustomer int64     `gorm:"not null;default:0" json:"unread_for_customer"`
	CustomerName      string    `gorm:"size:255;not null;default:''" json:"customer_name"`
	CustomerAvatar    string    `gorm:"size:1024;not null;default:''" json:"customer_avatar"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Room) TableName() string {
	return "chat_rooms"
}

// UnreadFor returns the counter owned by role.
func (r Room) UnreadFor(role Role) int64 {
	if role == RoleAdmin {
		return r.UnreadForAdmin
	}
	return r.UnreadForCustomer
}

// UnreadColumn names the counter column owned by role.
func UnreadColumn(role Role) string {
	if role == RoleAdmin {
		return "unread_for_admin"
	}
	return "unread_for_customer"
}

// Normalize trims display fields and clamps counters at zero.
func (r *Room) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerAvatar = strings.TrimSpace(r.CustomerAvatar)
	if r.UnreadForAdmin < 0 {
		r.UnreadForAdmin = 0
	}
	if r.UnreadForCustomer < 0 {
		r.UnreadForCustomer = 0
	}
}

// AdminBadge counts rooms holding at least one message unseen by the admin.
func AdminBadge(rooms []Room) int64 {
	var n int64
	for _, r := range rooms {
		if r.UnreadForAdmin > 0 {
			n++
		}
	}
	return n
}
