// middleware/organizer.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// OrganizerContextMiddleware extracts the authenticated organizer identity
// set by the gateway. Access is all-or-nothing per session: any request
// without an organizer email on a secured route is rejected.
func OrganizerContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := strings.TrimSpace(c.Get("X-Organizer-Email"))
		if email == "" {
			log.Printf("❌ [ORGANIZER_CTX] X-Organizer-Email missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Organizer-Email: request must come through the gateway with auth context",
			})
		}

		c.Locals("organizer_email", email)
		return c.Next()
	}
}
