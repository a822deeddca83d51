package middleware

import (
	"strings"

	"blog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthRequired.
const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
	LocalToken  = "token"
)

var errNoToken = &services.Error{Kind: services.KindAuth, Message: "Not authorized, no token"}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", errNoToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", services.ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// AuthRequired is a Fiber middleware that rejects requests without a valid
// session token and stores the caller's identity in Locals.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}

		claims, err := authService.VerifyToken(token)
		if err != nil {
			return err
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalToken, token)
		return c.Next()
	}
}

// UserID returns the authenticated user's ID stored by AuthRequired.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
