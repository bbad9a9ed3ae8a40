// FILE: internal/controller/auth_controller.go
package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ryounan4/Cramify/internal/dto"
	"github.com/ryounan4/Cramify/internal/pkg/serverutils"
	"github.com/ryounan4/Cramify/internal/service"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
	Token(ctx *fiber.Ctx) error
}

type authController struct {
	service  service.IAuthService
	sessions service.ISessionService
	generate service.IGenerateService
}

func NewAuthController(authService service.IAuthService, sessions service.ISessionService, generate service.IGenerateService) IAuthController {
	return &authController{
		service:  authService,
		sessions: sessions,
		generate: generate,
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", serverutils.FormCookieMiddleware, c.Register)
	h.Post("/login", serverutils.FormCookieMiddleware, c.Login)
	h.Post("/logout", serverutils.JwtMiddleware, c.Logout)
	h.Get("/session", serverutils.OptionalJwtMiddleware, c.Session)
	h.Get("/token", serverutils.OptionalJwtMiddleware, c.Token)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if msg, ok := serverutils.ValidateStruct(&req); !ok {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, msg))
	}

	res, err := c.service.Register(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res.Resumed = c.resumePending(ctx, res)

	return ctx.JSON(serverutils.SuccessResponse("Account created", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if msg, ok := serverutils.ValidateStruct(&req); !ok {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, msg))
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, err.Error()))
	}

	res.Resumed = c.resumePending(ctx, res)

	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	if sessionID, ok := sessionIDFromLocals(ctx); ok {
		c.service.Logout(ctx.Context(), sessionID)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Logged out successfully", nil))
}

func (c *authController) Session(ctx *fiber.Ctx) error {
	sessionID, _ := sessionIDFromLocals(ctx)
	res := c.service.Current(ctx.Context(), sessionID)
	return ctx.JSON(serverutils.SuccessResponse("Session state", res))
}

func (c *authController) Token(ctx *fiber.Ctx) error {
	sessionID, _ := sessionIDFromLocals(ctx)
	res := c.service.Token(ctx.Context(), sessionID)
	return ctx.JSON(serverutils.SuccessResponse("Token state", res))
}

// resumePending executes a generate call that was deferred by the sign-in
// gate. It runs in the background; the client observes progress via the
// state endpoint or the websocket stream.
func (c *authController) resumePending(ctx *fiber.Ctx, login *dto.LoginResponse) bool {
	formID := serverutils.FormID(ctx)
	if formID == uuid.Nil {
		return false
	}

	form := c.generate.State(ctx.Context(), formID)
	if form == nil || !form.PendingGenerate {
		return false
	}

	raw, ok := serverutils.ParseSessionToken(login.AccessToken)
	if !ok {
		return false
	}
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		return false
	}
	session, found := c.sessions.Current(ctx.Context(), sessionID)
	if !found {
		return false
	}

	// The request context dies with this handler; the resumed generate
	// outlives it.
	go c.generate.Resume(context.Background(), formID, session)
	return true
}
