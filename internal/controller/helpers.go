package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// sessionIDFromLocals reads the session id stored by the JWT middleware.
func sessionIDFromLocals(ctx *fiber.Ctx) (uuid.UUID, bool) {
	raw, ok := ctx.Locals("session_id").(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
