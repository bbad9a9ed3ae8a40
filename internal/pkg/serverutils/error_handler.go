package serverutils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts unhandled errors bubbling out of handlers
// into the standard envelope so clients never see a bare fiber error page.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		log.Printf("[HTTP] Unhandled error on %s %s: %v", ctx.Method(), ctx.Path(), err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
