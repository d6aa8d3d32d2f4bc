package events

// ChannelResolver determines which channels an event is published to
type ChannelResolver interface {
	ResolveChannels(event Event) []string
}

// RoomChannelResolver sends every room event to the directory channel and to
// the room's own channel.
type RoomChannelResolver struct{}

func NewRoomChannelResolver() *RoomChannelResolver {
	return &RoomChannelResolver{}
}

func (r *RoomChannelResolver) ResolveChannels(event Event) []string {
	if event.RoomID == "" {
		return []string{ChannelRooms}
	}
	return []string{ChannelRooms, RoomChannel(event.RoomID)}
}
