package bootstrap

import (
	"context"
	"log"
	"time"

	"audibleai-be/internal/config"
	"audibleai-be/internal/controller"
	"audibleai-be/internal/handler"
	"audibleai-be/internal/pkg/logger"
	"audibleai-be/internal/pkg/serverutils"
	"audibleai-be/internal/repository/unitofwork"
	"audibleai-be/internal/service"
	"audibleai-be/internal/websocket"
	"audibleai-be/pkg/llm/gemini"
	"audibleai-be/pkg/tts/chirp"

	pktNats "audibleai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController controller.IAuthController
	ChatController controller.IChatController

	// Background services (exposed for main.go to run)
	TitleConsumerService service.ITitleConsumerService

	// WebSockets
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	llmProvider := gemini.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Chat.GeminiModel)
	speechProvider := chirp.NewChirpProvider(cfg.Tts.Endpoint, cfg.Keys.Tts)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub with its own log file to keep main logs clean
	wsLogger := logger.NewIsolatedLogger("logs/realtime.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Synthesis in-flight registry. Entries are short-lived; expiry is a
	// safety net for loops that die without cleaning up.
	ttsRegistry := gocache.New(10*time.Minute, 15*time.Minute)

	// 5. Services
	titlePublisher := service.NewTitlePublisher(pubSub, cfg.Chat.TitleTopic)
	titleConsumer := service.NewTitleConsumerService(
		pubSub,
		cfg.Chat.TitleTopic,
		uowFactory,
		llmProvider,
		wsHub,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, natsPub, sysLogger, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		wsHub,
		titlePublisher,
		natsPub,
		sysLogger,
		cfg.Chat.StreamDelay,
	)
	ttsService := service.NewTtsService(speechProvider, wsHub, sysLogger, ttsRegistry, cfg.Tts.DefaultVoice)

	// 6. Realtime routing
	wsRouter := websocket.NewRouter(chatService, ttsService, wsHub, wsLogger)
	realtimeHandler := handler.NewRealtimeHandler(wsHub, wsRouter, authService, wsLogger)

	// 7. Controllers
	jwtMiddleware := serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret)

	return &Container{
		AuthController: controller.NewAuthController(authService),
		ChatController: controller.NewChatController(chatService, jwtMiddleware),

		TitleConsumerService: titleConsumer,

		RealtimeHandler: realtimeHandler,
		WebSocketHub:    wsHub,
	}
}
