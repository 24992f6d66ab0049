package middleware

import (
	"strings"
	"washfamily/internal/models"

	"github.com/gofiber/fiber/v2"
)

const SessionKeyFiber = "Session"

// RequireAuth resolves the bearer session token to a live gateway session.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		session, err := m.auth.Authenticate(c.UserContext(), tokenParts[1])
		if err != nil {
			log.Info("session rejected", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session expired, please sign in again",
			})
		}

		c.Locals(SessionKeyFiber, session)
		return c.Next()
	}
}

func GetSession(c *fiber.Ctx) *models.Session {
	session, ok := c.Locals(SessionKeyFiber).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
