package middleware

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"filenet/internal/repository"
)

const (
	// AuthHeader is the header carrying the caller's API token.
	AuthHeader = "Authorization"
	// PrincipalLocalKey is the key under which the authenticated user is
	// stored in Fiber's context locals.
	PrincipalLocalKey = "principal"
)

// Auth authenticates every request by resolving the Authorization token to
// a user. A missing or unknown token yields a uniform 401; the request
// never reaches a handler without a principal in locals.
//
// Tokens are accepted bare or with a "Bearer " prefix.
func Auth(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Get(AuthHeader))
		token = strings.TrimPrefix(token, "Bearer ")
		if token == "" {
			return unauthenticated(c)
		}

		user, err := users.FindByToken(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return unauthenticated(c)
			}
			return fiber.ErrInternalServerError
		}

		c.Locals(PrincipalLocalKey, user)
		return c.Next()
	}
}

// unauthenticated writes the standard error envelope. The handler package's
// writeError cannot be used here without an import cycle, so the shape is
// mirrored.
func unauthenticated(c *fiber.Ctx) error {
	rid, _ := c.Locals(RequestIDLocalKey).(string)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"request_id": rid,
		"error": fiber.Map{
			"code":    "UNAUTHENTICATED",
			"message": "authentication required",
		},
	})
}
