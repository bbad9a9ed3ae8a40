package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const FormCookieName = "cramify_form"

// FormCookieMiddleware ensures every browser carries a stable form id. The
// id keys the upload form, the pending-action slot and the websocket stream.
func FormCookieMiddleware(ctx *fiber.Ctx) error {
	raw := ctx.Cookies(FormCookieName)
	formID, err := uuid.Parse(raw)
	if raw == "" || err != nil {
		formID = uuid.New()
		ctx.Cookie(&fiber.Cookie{
			Name:     FormCookieName,
			Value:    formID.String(),
			Expires:  time.Now().Add(24 * time.Hour),
			HTTPOnly: true,
			SameSite: "Lax",
		})
	}
	ctx.Locals("form_id", formID)
	return ctx.Next()
}

// FormID reads the form id set by FormCookieMiddleware.
func FormID(ctx *fiber.Ctx) uuid.UUID {
	if id, ok := ctx.Locals("form_id").(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
