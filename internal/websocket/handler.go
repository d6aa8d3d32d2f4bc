package websocket

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"chapel-site/internal/services"
	"chapel-site/internal/transport/httpdto"
	"chapel-site/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	hub       *Hub
	directory Directory
	opener    Opener
	feed      Feed
	log       *logger.Logger
	upgrader  websocket.Upgrader
}

func NewHandler(hub *Hub, directory Directory, opener Opener, feed Feed, allowedOrigins []string, l *logger.Logger) *Handler {
	if l == nil {
		l = logger.NewNop()
	}
	return &Handler{
		hub:       hub,
		directory: directory,
		opener:    opener,
		feed:      feed,
		log:       l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Connect upgrades an authenticated request and serves the session until
// the peer goes away. It must run after the auth middleware.
func (h *Handler) Connect(c *gin.Context) {
	actor, ok := services.ActorFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, actor.ID)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	session := NewSession(ctx, actor, client.SendMessage, h.directory, h.opener, h.feed, h.log)
	defer session.Close()

	h.log.InfoCtx(ctx, "ws connected", zap.String("client_id", client.ID))

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		session.Handle(data)
	}

	h.hub.Unregister(client)
	h.log.InfoCtx(ctx, "ws disconnected", zap.String("client_id", client.ID))
}

// originChecker allows the configured origins; with none configured every
// origin is accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[u.Scheme+"://"+u.Host]
		return ok
	}
}
