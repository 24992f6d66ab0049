package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequireWasher admits sessions whose user has cleared every washer gate.
func (m *Middleware) RequireWasher() fiber.Handler {
	log := m.log.Function("RequireWasher")

	return func(c *fiber.Ctx) error {
		session := GetSession(c)
		if session == nil || session.User == nil {
			log.Info("session not found in context")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !session.User.CanActAsWasher() {
			log.Info("washer access denied", "userID", session.UserID())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":        "Washer access required",
				"washerAccess": session.User.WasherAccess(),
			})
		}

		return c.Next()
	}
}
