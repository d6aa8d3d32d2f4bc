package httpdto

import "time"

// SendMessageRequest is used for POST /chat/rooms/:id/messages
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type RoomDTO struct {
	ID                string    `json:"id"`
	LastMessage       string    `json:"last_message"`
	LastMessageAt     time.Time `json:"last_message_at"`
	UnreadForAdmin    int64     `json:"unread_for_admin"`
	UnreadForCustomer int64     `json:"unread_for_customer"`
	CustomerName      string    `json:"customer_name"`
	CustomerAvatar    string    `json:"customer_avatar,omitempty"`
}

type RoomListResponse struct {
	Rooms []RoomDTO `json:"rooms"`
	Badge int64     `json:"badge"`
}

type BadgeResponse struct {
	Badge int64 `json:"badge"`
}

type MessageDTO struct {
	ID        uint64    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageListResponse struct {
	RoomID   string       `json:"room_id"`
	Messages []MessageDTO `json:"messages"`
}
