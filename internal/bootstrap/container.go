package bootstrap

import (
	"context"
	"log"

	"github.com/ryounan4/Cramify/internal/config"
	"github.com/ryounan4/Cramify/internal/controller"
	"github.com/ryounan4/Cramify/internal/pkg/logger"
	"github.com/ryounan4/Cramify/internal/repository/memory"
	"github.com/ryounan4/Cramify/internal/service"
	"github.com/ryounan4/Cramify/internal/websocket"
	"github.com/ryounan4/Cramify/pkg/backend"
	"github.com/ryounan4/Cramify/pkg/identity/gcip"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	OAuthController    controller.IOAuthController
	GenerateController controller.IGenerateController
	SystemController   controller.ISystemController

	// WebSockets
	WebSocketHub *websocket.Hub

	// Exposed for shutdown
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. In-Memory Storage
	sessionRepo := memory.NewSessionRepository(cfg.App.SessionTTL)
	formRepo := memory.NewFormRepository(cfg.App.SessionTTL)
	artifactRepo := memory.NewArtifactRepository(cfg.App.ArtifactTTL)

	// 3. External Clients
	identityClient := gcip.NewClient(cfg.Identity.APIKey, cfg.Identity.BaseURL, cfg.Identity.TokenURL)
	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	log.Printf("[INFO] Using generation backend: %s (timeout %s)", cfg.Backend.BaseURL, cfg.Backend.Timeout)

	// Redis
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

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// 4. Services
	sessionService := service.NewSessionService(sessionRepo, identityClient)
	generateService := service.NewGenerateService(formRepo, artifactRepo, backendClient, sessionService, wsHub)
	authService := service.NewAuthService(identityClient, sessionService)
	oauthService := service.NewOAuthService(cfg.OAuth, identityClient, sessionService)

	// Forward session changes to connected browsers. The subscription is
	// released when the hub shuts down the forwarder.
	events, release := sessionService.Watch()
	go func() {
		defer release()
		for event := range events {
			wsHub.BroadcastSession(event)
		}
	}()

	// 5. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService, sessionService, generateService),
		OAuthController:    controller.NewOAuthController(oauthService, sessionService, generateService, cfg.App.ClientURL),
		GenerateController: controller.NewGenerateController(generateService, sessionService, artifactRepo),
		SystemController:   controller.NewSystemController(backendClient),
		WebSocketHub:       wsHub,
		Logger:             sysLogger,
	}
}
