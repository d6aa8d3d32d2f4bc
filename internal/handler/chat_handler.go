package handler

import (
	"net/http"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/services"
	"chapel-site/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// ChatHandler exposes the support chat over HTTP.
type ChatHandler struct {
	directory *services.RoomDirectory
	protocol  *services.UnreadProtocol
	feed      *services.MessageFeed
	lifecycle *services.ConversationLifecycle
}

func NewChatHandler(directory *services.RoomDirectory, protocol *services.UnreadProtocol, feed *services.MessageFeed, lifecycle *services.ConversationLifecycle) *ChatHandler {
	return &ChatHandler{
		directory: directory,
		protocol:  protocol,
		feed:      feed,
		lifecycle: lifecycle,
	}
}

// ListRooms returns the admin's room directory, or the customer's own room.
func (h *ChatHandler) ListRooms(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	rooms, err := h.directory.ListRooms(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := httpdto.RoomListResponse{Rooms: toRoomDTOs(rooms)}
	if actor.IsAdmin() {
		resp.Badge = chat.AdminBadge(rooms)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

// Badge returns the number of rooms with unread customer messages.
func (h *ChatHandler) Badge(c *gin.Context) {
	badge, err := h.directory.AdminBadge(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.BadgeResponse{Badge: badge}))
}

// OpenRoom marks the room read for the caller's side.
func (h *ChatHandler) OpenRoom(c *gin.Context) {
	actor, roomID, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := h.protocol.OpenRoom(c.Request.Context(), actor, roomID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// ListMessages returns the newest messages of a room, oldest first.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	actor, roomID, ok := h.resolve(c)
	if !ok {
		return
	}
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		badRequest(c)
		return
	}

	msgs, err := h.feed.Recent(c.Request.Context(), actor, roomID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MessageListResponse{
		RoomID:   roomID,
		Messages: toMessageDTOs(msgs),
	}))
}

// SendMessage appends a message to a room.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	actor, roomID, ok := h.resolve(c)
	if !ok {
		return
	}
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	msg, err := h.protocol.SendMessage(c.Request.Context(), actor, roomID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(toMessageDTO(msg)))
}

// ClearRoom deletes a room's messages, keeping the room.
func (h *ChatHandler) ClearRoom(c *gin.Context) {
	actor, roomID, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := h.lifecycle.ClearConversation(c.Request.Context(), actor, roomID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// DeleteRoom removes a room and its messages.
func (h *ChatHandler) DeleteRoom(c *gin.Context) {
	actor, roomID, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := h.lifecycle.DeleteRoom(c.Request.Context(), actor, roomID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ChatHandler) resolve(c *gin.Context) (chat.Actor, string, bool) {
	actor, ok := actorOf(c)
	if !ok {
		return chat.Actor{}, "", false
	}
	roomID, err := h.directory.ResolveRoom(actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return chat.Actor{}, "", false
	}
	return actor, roomID, true
}

func toRoomDTOs(rooms []chat.Room) []httpdto.RoomDTO {
	out := make([]httpdto.RoomDTO, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, httpdto.RoomDTO{
			ID:                r.ID,
			LastMessage:       r.LastMessage,
			LastMessageAt:     r.LastMessageAt,
			UnreadForAdmin:    r.UnreadForAdmin,
			UnreadForCustomer: r.UnreadForCustomer,
			CustomerName:      r.CustomerName,
			CustomerAvatar:    r.CustomerAvatar,
		})
	}
	return out
}

func toMessageDTO(m chat.Message) httpdto.MessageDTO {
	return httpdto.MessageDTO{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func toMessageDTOs(msgs []chat.Message) []httpdto.MessageDTO {
	out := make([]httpdto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageDTO(m))
	}
	return out
}
