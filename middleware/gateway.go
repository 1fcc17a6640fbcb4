// middleware/gateway.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ServiceAuthMiddleware validates the Bearer token forwarded by the identity
// gateway. Every dashboard request must carry it; receipt routes stay public
// so receipts remain shareable.
func ServiceAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("SQUADPAY_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ SQUADPAY_SERVICE_TOKEN is not set: service cannot authenticate the gateway")
	}

	return func(c *fiber.Ctx) error {
		// Receipt links open without a session, and probes scrape without one.
		path := c.Path()
		if strings.HasPrefix(path, "/t/") || path == "/healthz" || path == "/metrics" {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix: accept the raw value
			token = authHeader
		}

		if token != expectedToken {
			log.Printf("❌ [AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authentication token",
			})
		}

		return c.Next()
	}
}
