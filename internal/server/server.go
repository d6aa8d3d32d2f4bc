package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chapel-site/config"
	"chapel-site/internal/handler"
	"chapel-site/internal/middleware"
	"chapel-site/internal/transport/httpdto"
	"chapel-site/internal/websocket"
	"chapel-site/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Chat    *handler.ChatHandler
	Contact *handler.ContactHandler
	Review  *handler.ReviewHandler
	Media   *handler.MediaHandler
	WS      *websocket.Handler
}

// Deps carries what the middleware chain needs besides handlers.
type Deps struct {
	Auth    middleware.Authenticator
	Limiter middleware.Limiter
	// Health reports dependency failures by name; an empty map is healthy.
	Health func(ctx context.Context) map[string]string
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = 8 << 20

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, deps Deps) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if failures := deps.Health(c.Request.Context()); len(failures) > 0 {
				c.JSON(http.StatusServiceUnavailable, httpdto.Response[map[string]string]{
					Success: false,
					Data:    failures,
					Error:   "unhealthy",
					Code:    "UNHEALTHY",
				})
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	requireAuth := middleware.AuthMiddleware(deps.Auth)
	requireAdmin := middleware.RequireAdmin()

	auth := s.engine.Group("/v1/auth")
	{
		limited := middleware.AuthRateLimitMiddleware(deps.Limiter, s.logger)
		auth.POST("/register", limited, handlers.Auth.Register)
		auth.POST("/login", limited, handlers.Auth.Login)
		auth.GET("/me", requireAuth, handlers.Auth.Me)
		auth.PATCH("/me", requireAuth, handlers.Auth.UpdateMe)
	}

	chat := s.engine.Group("/v1/chat", requireAuth)
	{
		chat.GET("/rooms", handlers.Chat.ListRooms)
		chat.GET("/badge", requireAdmin, handlers.Chat.Badge)
		chat.POST("/rooms/:id/open", handlers.Chat.OpenRoom)
		chat.GET("/rooms/:id/messages", handlers.Chat.ListMessages)
		chat.POST("/rooms/:id/messages", middleware.MessageRateLimitMiddleware(deps.Limiter, s.logger), handlers.Chat.SendMessage)
		chat.POST("/rooms/:id/clear", requireAdmin, handlers.Chat.ClearRoom)
		chat.DELETE("/rooms/:id", requireAdmin, handlers.Chat.DeleteRoom)
	}

	contacts := s.engine.Group("/v1/contacts")
	{
		contacts.POST("", middleware.ContactRateLimitMiddleware(deps.Limiter, s.logger), handlers.Contact.Submit)
		contacts.GET("", requireAuth, requireAdmin, handlers.Contact.List)
	}

	reviews := s.engine.Group("/v1/reviews")
	{
		reviews.GET("", handlers.Review.List)
		reviews.POST("", requireAuth, handlers.Review.Create)
		reviews.DELETE("/:id", requireAuth, requireAdmin, handlers.Review.Delete)
	}

	admin := s.engine.Group("/v1/admin", requireAuth, requireAdmin)
	{
		admin.POST("/media", handlers.Media.Upload)
	}

	if handlers.WS != nil {
		s.engine.GET("/v1/ws", requireAuth, handlers.WS.Connect)
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
