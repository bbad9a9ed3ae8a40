// FILE: internal/controller/oauth_controller.go
package controller

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ryounan4/Cramify/internal/pkg/serverutils"
	"github.com/ryounan4/Cramify/internal/service"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	sessions  service.ISessionService
	generate  service.IGenerateService
	clientURL string
}

func NewOAuthController(oauthService service.IOAuthService, sessions service.ISessionService, generate service.IGenerateService, clientURL string) IOAuthController {
	return &oauthController{
		service:   oauthService,
		sessions:  sessions,
		generate:  generate,
		clientURL: clientURL,
	}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/oauth")
	h.Get("/:provider", serverutils.FormCookieMiddleware, c.Login)
	h.Get("/:provider/callback", serverutils.FormCookieMiddleware, c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")
	log.Printf("[OAuth] Login initiated for provider: %s", provider)

	url, err := c.service.GetLoginURL(provider)
	if err != nil {
		log.Printf("[OAuth] ERROR - Failed to get login URL: %v", err)
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	log.Printf("[OAuth] Redirecting user to: %s", url)
	return ctx.Redirect(url)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")
	code := ctx.Query("code")

	log.Printf("[OAuth] Callback received for provider: %s", provider)

	if code == "" {
		// The user backed out of the consent screen; treat as a dismissed
		// gate, never as an auto-resume.
		log.Printf("[OAuth] Sign-in cancelled by user")
		if formID := serverutils.FormID(ctx); formID != uuid.Nil {
			c.generate.Dismiss(ctx.Context(), formID)
		}
		return ctx.Redirect(c.clientURL + "/?signin=cancelled")
	}

	res, err := c.service.HandleCallback(ctx.Context(), provider, code)
	if err != nil {
		log.Printf("[OAuth] ERROR - HandleCallback failed: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	log.Printf("[OAuth] ✅ User authenticated successfully")
	log.Printf("[OAuth] User Email: %s", res.User.Email)

	// Resume a deferred generate for this browser, if the gate armed one.
	if formID := serverutils.FormID(ctx); formID != uuid.Nil {
		form := c.generate.State(ctx.Context(), formID)
		if form != nil && form.PendingGenerate {
			if raw, ok := serverutils.ParseSessionToken(res.AccessToken); ok {
				if sessionID, err := uuid.Parse(raw); err == nil {
					if session, found := c.sessions.Current(ctx.Context(), sessionID); found {
						go c.generate.Resume(context.Background(), formID, session)
						res.Resumed = true
					}
				}
			}
		}
	}

	redirectURL := fmt.Sprintf("%s/?token=%s", c.clientURL, res.AccessToken)
	log.Printf("[OAuth] Redirecting to client: %s/?token=***", c.clientURL)

	return ctx.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}
