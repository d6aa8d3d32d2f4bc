package events

import (
	"time"
)

type EventType string

// Room events
const (
	EventMessageCreated EventType = "message.created"
	EventRoomRead       EventType = "room.read"
	EventRoomCleared    EventType = "room.cleared"
	EventRoomDeleted    EventType = "room.deleted"
)

// Channel names
const (
	ChannelPrefix     = "channel:"
	ChannelRooms      = "channel:rooms"
	ChannelPrefixRoom = "channel:room:"
)

// Event announces that a room's metadata or feed changed. Subscribers treat
// it as a wake-up and re-read the store rather than applying it as a delta.
type Event struct {
	Type       EventType `json:"event_type"`
	RoomID     string    `json:"room_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(eventType EventType, roomID, actorID string) Event {
	return Event{
		Type:       eventType,
		RoomID:     roomID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

// RoomChannel is the channel carrying events of a single room.
func RoomChannel(roomID string) string {
	return ChannelPrefixRoom + roomID
}
