package server

import (
	"log"

	"github.com/ryounan4/Cramify/internal/bootstrap"
	"github.com/ryounan4/Cramify/internal/config"
	"github.com/ryounan4/Cramify/internal/pkg/serverutils"
	ws "github.com/ryounan4/Cramify/internal/websocket"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	// Initialize Fiber App
	app := fiber.New(fiber.Config{
		// 10 source PDFs of up to 50MB each, plus multipart overhead
		BodyLimit: 512 * 1024 * 1024,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Content-Disposition, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.AuthController.RegisterRoutes(api)
	c.OAuthController.RegisterRoutes(api)
	c.GenerateController.RegisterRoutes(api)
	c.SystemController.RegisterRoutes(api)

	// Live form/session updates, one socket per browser form.
	app.Get("/ws", serverutils.FormCookieMiddleware, func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			ctx.Locals("allowed", true)
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(func(conn *websocket.Conn) {
		formID, ok := conn.Locals("form_id").(uuid.UUID)
		if !ok {
			conn.Close()
			return
		}
		ws.ServeWs(c.WebSocketHub, conn, formID)
	}))
}
