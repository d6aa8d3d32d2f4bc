package main

import (
	"context"
	"log"
	"time"

	"chapel-site/config"
	"chapel-site/internal/events"
	"chapel-site/internal/handler"
	"chapel-site/internal/redis"
	"chapel-site/internal/repository"
	"chapel-site/internal/server"
	"chapel-site/internal/services"
	"chapel-site/internal/storage"
	"chapel-site/internal/websocket"
	"chapel-site/pkg/database"
	"chapel-site/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	database.Connect(cfg)
	defer database.Close()

	if err := repository.InitSchema(database.DB); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	if len(cfg.AdminUserIDs) == 0 {
		l.Warnf("ADMIN_USER_IDS is empty; nobody can answer customer chats")
	}

	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	redisClient := redis.GetClient()
	redisUp := redis.Ping(context.Background(), redisClient, 2*time.Second) == nil
	if !redisUp {
		l.Warnf("Redis is unreachable at %s:%s; rate limiting disabled", cfg.RedisHost, cfg.RedisPort)
	}

	var bus events.Bus
	if cfg.EventBus == "redis" {
		if !redisUp {
			log.Fatalf("EVENT_BUS=redis but Redis is unreachable")
		}
		bus = events.NewRedisBus(redisClient, events.NewRoomChannelResolver(), l)
	} else {
		bus = events.NewLocalBus(events.NewRoomChannelResolver())
	}

	deps := server.Deps{
		Health: healthCheck(redisClient, redisUp || cfg.EventBus == "redis"),
	}
	if redisUp {
		deps.Limiter = redis.NewRateLimiter(redisClient, rateLimitConfig(cfg))
	}

	userRepo := repository.NewUserRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)
	contactRepo := repository.NewContactRepository(database.DB)
	reviewRepo := repository.NewReviewRepository(database.DB)

	identity := services.NewIdentityResolver(userRepo, services.NewAdminSet(cfg.AdminUserIDs))
	authService := services.NewAuthService(userRepo, identity, cfg)
	deps.Auth = authService

	directory := services.NewRoomDirectory(chatRepo, bus, l)
	protocol := services.NewUnreadProtocol(chatRepo, identity, bus, l, cfg.ChatMaxMessageLen)
	feed := services.NewMessageFeed(chatRepo, bus, l, cfg.ChatFeedLimit)
	lifecycle := services.NewConversationLifecycle(chatRepo, bus, l)

	mediaService := services.NewMediaService(objectStore(cfg, l), cfg.MaxUploadMB, l)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Chat:    handler.NewChatHandler(directory, protocol, feed, lifecycle),
		Contact: handler.NewContactHandler(services.NewContactService(contactRepo, l)),
		Review:  handler.NewReviewHandler(services.NewReviewService(reviewRepo, l)),
		Media:   handler.NewMediaHandler(mediaService),
		WS:      websocket.NewHandler(hub, directory, protocol, feed, cfg.CORSOrigins, l),
	}, deps)

	if err := srv.Start(); err != nil {
		l.Errorf("Server stopped with error: %v", err)
	}
}

func rateLimitConfig(cfg *config.Config) redis.RateLimitConfig {
	rl := redis.DefaultRateLimitConfig()
	rl.MessageLimit = cfg.MessageRateLimit
	rl.ContactLimit = cfg.ContactRateLimit
	rl.AuthLimit = cfg.AuthRateLimit
	return rl
}

// objectStore returns nil when S3 is not configured; uploads then answer 503.
func objectStore(cfg *config.Config, l *logger.Logger) services.ObjectStore {
	if cfg.S3Bucket == "" {
		l.Warnf("S3_BUCKET is empty; media uploads disabled")
		return nil
	}
	client, err := storage.NewClient(context.Background(), storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
		ACL:        cfg.S3ACL,
	})
	if err != nil {
		l.Errorf("S3 client: %v; media uploads disabled", err)
		return nil
	}
	return client
}

// healthCheck probes Redis only when the process depends on it.
func healthCheck(redisClient *goredis.Client, withRedis bool) func(ctx context.Context) map[string]string {
	return func(ctx context.Context) map[string]string {
		failures := map[string]string{}
		if err := database.HealthCheck(); err != nil {
			failures["database"] = err.Error()
		}
		if withRedis {
			if err := redis.Ping(ctx, redisClient, time.Second); err != nil {
				failures["redis"] = err.Error()
			}
		}
		return failures
	}
}
