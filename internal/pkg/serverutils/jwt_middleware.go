package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware rejects requests without a valid bearer token and stores the
// session id in Locals for handlers.
func JwtMiddleware(ctx *fiber.Ctx) error {
	sessionID, ok := parseBearer(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing or invalid token"))
	}
	ctx.Locals("session_id", sessionID)
	return ctx.Next()
}

// OptionalJwtMiddleware extracts the session id when a valid token is
// present but lets unauthenticated requests through. The generate path needs
// this: a missing session opens the gate instead of failing the request.
func OptionalJwtMiddleware(ctx *fiber.Ctx) error {
	if sessionID, ok := parseBearer(ctx); ok {
		ctx.Locals("session_id", sessionID)
	}
	return ctx.Next()
}

func parseBearer(ctx *fiber.Ctx) (string, bool) {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", false
	}
	return ParseSessionToken(authHeader[7:])
}

// ParseSessionToken verifies an app bearer token and returns the session id
// it references.
func ParseSessionToken(tokenStr string) (string, bool) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			secret = "default_secret"
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}

	sessionID, ok := claims["session_id"].(string)
	if !ok || sessionID == "" {
		return "", false
	}
	return sessionID, true
}
