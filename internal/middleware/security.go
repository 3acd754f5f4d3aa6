package middleware

import (
	"github.com/gofiber/fiber/v3"
)

// SecurityHeaders returns middleware that sets security-related HTTP
// headers. The facilitator serves JSON only, so the policy is strict.
func SecurityHeaders() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Force HTTPS, prevent downgrade attacks
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		// Prevent MIME type sniffing
		c.Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking by denying iframe embedding
		c.Set("X-Frame-Options", "DENY")

		// Control referrer information sent with requests
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		return c.Next()
	}
}
