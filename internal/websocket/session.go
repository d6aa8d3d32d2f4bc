package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/services"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"go.uber.org/zap"
)

// Client actions
const (
	ActionSubscribeRooms = "subscribe_rooms"
	ActionOpenRoom       = "open_room"
	ActionCloseRoom      = "close_room"
)

// Server frame types
const (
	FrameRooms = "rooms"
	FrameFeed  = "feed"
	FrameError = "error"
)

type ClientFrame struct {
	Action string `json:"action"`
	RoomID string `json:"room_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type RoomsFrame struct {
	Type  string      `json:"type"`
	Rooms []chat.Room `json:"rooms"`
	Badge int64       `json:"badge"`
}

type FeedFrame struct {
	Type     string         `json:"type"`
	RoomID   string         `json:"room_id"`
	Exists   bool           `json:"exists"`
	Messages []chat.Message `json:"messages"`
}

type ErrorFrame struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
	Code   string `json:"code"`
}

type Directory interface {
	SubscribeRooms(ctx context.Context, actor chat.Actor) (<-chan []chat.Room, error)
	ResolveRoom(actor chat.Actor, requested string) (string, error)
}

type Opener interface {
	OpenRoom(ctx context.Context, actor chat.Actor, roomID string) error
}

type Feed interface {
	Subscribe(ctx context.Context, actor chat.Actor, roomID string, limit int) (<-chan chat.FeedSnapshot, error)
}

// Session runs one connection's live views: at most one room directory and
// at most one open room feed.
type Session struct {
	ctx   context.Context
	actor chat.Actor
	send  func([]byte) bool
	log   *logger.Logger

	directory Directory
	opener    Opener
	feed      Feed

	mu          sync.Mutex
	roomsCancel context.CancelFunc
	feedCancel  context.CancelFunc
	openRoomID  string

	// writeMu orders live view writes against their cancellation so a
	// replaced view never writes after its successor.
	writeMu sync.Mutex
}

func NewSession(ctx context.Context, actor chat.Actor, send func([]byte) bool, directory Directory, opener Opener, feed Feed, l *logger.Logger) *Session {
	if l == nil {
		l = logger.NewNop()
	}
	return &Session{
		ctx:       ctx,
		actor:     actor,
		send:      send,
		log:       l,
		directory: directory,
		opener:    opener,
		feed:      feed,
	}
}

// Handle processes one inbound frame.
func (s *Session) Handle(data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.sendError("", chapel_errors.ErrInvalidInput)
		return
	}

	var err error
	switch frame.Action {
	case ActionSubscribeRooms:
		err = s.subscribeRooms()
	case ActionOpenRoom:
		err = s.openRoom(frame.RoomID, frame.Limit)
	case ActionCloseRoom:
		s.closeRoom()
	default:
		err = chapel_errors.ErrInvalidInput
	}
	if err != nil {
		s.sendError(frame.Action, err)
	}
}

// Close stops every live view of the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop(s.roomsCancel)
	s.roomsCancel = nil
	s.stop(s.feedCancel)
	s.feedCancel = nil
	s.openRoomID = ""
}

// OpenRoomID returns the room whose feed is currently streamed.
func (s *Session) OpenRoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openRoomID
}

func (s *Session) subscribeRooms() error {
	ctx, cancel := context.WithCancel(s.ctx)
	rooms, err := s.directory.SubscribeRooms(ctx, s.actor)
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.stop(s.roomsCancel)
	s.roomsCancel = cancel
	s.mu.Unlock()

	go func() {
		for list := range rooms {
			frame := RoomsFrame{Type: FrameRooms, Rooms: list}
			if s.actor.IsAdmin() {
				frame.Badge = chat.AdminBadge(list)
			} else if len(list) == 1 {
				frame.Badge = list[0].UnreadForCustomer
			}
			s.writeLive(ctx, frame)
		}
	}()
	return nil
}

func (s *Session) openRoom(requested string, limit int) error {
	roomID, err := s.directory.ResolveRoom(s.actor, requested)
	if err != nil {
		return err
	}
	if err := s.opener.OpenRoom(s.ctx, s.actor, roomID); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	snapshots, err := s.feed.Subscribe(ctx, s.actor, roomID, limit)
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.stop(s.feedCancel)
	s.feedCancel = cancel
	s.openRoomID = roomID
	s.mu.Unlock()

	go func() {
		var seen uint64
		for snap := range snapshots {
			msgs := snap.Messages
			if msgs == nil {
				msgs = []chat.Message{}
			}
			// The room is on screen, so messages from the other side are
			// read as they arrive.
			if n := len(msgs); n > 0 && msgs[n-1].ID != seen {
				seen = msgs[n-1].ID
				if msgs[n-1].SenderID != s.actor.ID && ctx.Err() == nil {
					if err := s.opener.OpenRoom(ctx, s.actor, roomID); err != nil && ctx.Err() == nil {
						s.log.WarnCtx(ctx, "ws mark read failed", zap.String("room_id", roomID), zap.Error(err))
					}
				}
			}
			s.writeLive(ctx, FeedFrame{Type: FrameFeed, RoomID: snap.RoomID, Exists: snap.Exists, Messages: msgs})
		}
	}()
	return nil
}

func (s *Session) closeRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop(s.feedCancel)
	s.feedCancel = nil
	s.openRoomID = ""
}

// stop cancels a live view once none of its writes is in flight.
func (s *Session) stop(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	s.writeMu.Lock()
	cancel()
	s.writeMu.Unlock()
}

// writeLive drops frames of a view whose ctx is already done.
func (s *Session) writeLive(ctx context.Context, frame interface{}) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	s.write(frame)
}

func (s *Session) write(frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		s.log.ErrorCtx(s.ctx, "ws frame marshal failed", zap.Error(err))
		return
	}
	s.send(payload)
}

func (s *Session) sendError(action string, err error) {
	status := services.HTTPStatus(err)
	msg := err.Error()
	code := "INTERNAL_ERROR"
	switch {
	case errors.Is(err, chapel_errors.ErrInvalidInput):
		code = "INVALID_REQUEST"
	case errors.Is(err, chapel_errors.ErrForbidden):
		code = "FORBIDDEN"
	case errors.Is(err, chapel_errors.ErrUnauthorized):
		code = "UNAUTHORIZED"
	case errors.Is(err, chapel_errors.ErrNotFound):
		code = "NOT_FOUND"
	}
	if status >= 500 {
		s.log.ErrorCtx(s.ctx, "ws action failed", zap.String("action", action), zap.Error(err))
		msg = "internal error"
	}
	s.write(ErrorFrame{Type: FrameError, Action: action, Error: msg, Code: code})
}
