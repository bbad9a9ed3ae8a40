// FILE: internal/controller/system_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ryounan4/Cramify/internal/pkg/serverutils"
	"github.com/ryounan4/Cramify/pkg/backend"
)

type ISystemController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type systemController struct {
	backend *backend.Client
}

func NewSystemController(backendClient *backend.Client) ISystemController {
	return &systemController{backend: backendClient}
}

func (c *systemController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *systemController) Health(ctx *fiber.Ctx) error {
	status := fiber.Map{"service": "ok", "backend": "ok"}
	code := fiber.StatusOK
	if err := c.backend.Health(ctx.Context()); err != nil {
		status["backend"] = "unreachable"
		code = fiber.StatusServiceUnavailable
	}
	return ctx.Status(code).JSON(serverutils.SuccessResponse("Health check", status))
}
