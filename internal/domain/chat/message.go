package chat

import "time"

// Message is one immutable entry of a room's feed. ID and CreatedAt are
// assigned by the store.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID    string    `gorm:"size:64;index;not null" json:"room_id"`
	SenderID  string    `gorm:"size:64;not null" json:"sender_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

func (Message) TableName() string {
	return "chat_messages"
}

// FeedSnapshot is the bounded, oldest-first view of a room's feed at one
// point in time. Exists is false once the room is gone.
type FeedSnapshot struct {
	RoomID   string    `json:"room_id"`
	Exists   bool      `json:"exists"`
	Messages []Message `json:"messages"`
}
