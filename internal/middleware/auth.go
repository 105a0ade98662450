package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/policy"
	"taskboard/internal/repository"
	"taskboard/internal/token"
	"taskboard/pkg/logger"
)

// actorKey is the Locals slot holding the authenticated Actor.
const actorKey = "actor"

// Auth validates the bearer token and builds the request's Actor once, at the
// boundary. The account is reloaded so deactivation and role changes take
// effect immediately instead of at token expiry.
func Auth(tokens *token.Manager, users repository.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "No token provided")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return unauthorized(c, "Invalid token format")
		}

		claims, err := tokens.ValidateAccess(parts[1])
		if err != nil {
			if errors.Is(err, token.ErrExpiredToken) {
				return unauthorized(c, "Token expired")
			}
			return unauthorized(c, "Invalid token")
		}

		user, err := users.GetUser(c.Context(), claims.UserID)
		if err != nil || !user.Active {
			logger.SecurityLogger.Warn("Token for missing or inactive account",
				zap.Int("user_id", claims.UserID))
			return unauthorized(c, "Invalid token")
		}

		c.Locals(actorKey, policy.Actor{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
		})
		return c.Next()
	}
}

// ActorFrom returns the Actor the auth middleware stored on the request.
func ActorFrom(c *fiber.Ctx) policy.Actor {
	return c.Locals(actorKey).(policy.Actor)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  fiber.StatusUnauthorized,
	})
}
