package middleware

import (
	"strconv"
	"strings"
	"time"

	"midenpay/internal/config"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
)

// RateLimitMiddleware provides rate limiting for the facilitator API
type RateLimitMiddleware struct {
	config *config.RateLimitConfig
}

// NewRateLimitMiddleware creates a new rate limit middleware instance
func NewRateLimitMiddleware(cfg *config.RateLimitConfig) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		config: cfg,
	}
}

// Middleware returns the global limiter applied to all endpoints except
// health and metrics probes.
func (m *RateLimitMiddleware) Middleware() fiber.Handler {
	if !m.config.Enabled {
		return passthrough
	}

	return limiter.New(limiter.Config{
		Max:        m.config.GlobalMax,
		Expiration: time.Duration(m.config.WindowSeconds) * time.Second,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: m.limitReached,
		Next: func(c fiber.Ctx) bool {
			return isProbeEndpoint(c.Path())
		},
	})
}

// PaymentLimiter returns the per-caller limiter for /verify and /settle.
// Callers are keyed by payer account when the client identifies one via
// the X-Payer header, falling back to IP.
func (m *RateLimitMiddleware) PaymentLimiter() fiber.Handler {
	if !m.config.Enabled {
		return passthrough
	}

	return limiter.New(limiter.Config{
		Max:        m.config.MaxRequests,
		Expiration: time.Duration(m.config.WindowSeconds) * time.Second,
		KeyGenerator: func(c fiber.Ctx) string {
			if payer := c.Get("X-Payer"); payer != "" {
				return "payer:" + payer
			}
			return c.IP()
		},
		LimitReached: m.limitReached,
	})
}

func passthrough(c fiber.Ctx) error {
	return c.Next()
}

// limitReached returns the 429 Too Many Requests response
func (m *RateLimitMiddleware) limitReached(c fiber.Ctx) error {
	retryAfter := strconv.Itoa(m.config.WindowSeconds)

	c.Set("Retry-After", retryAfter)
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":       "rate_limited",
		"message":     "Too many requests. Please try again later.",
		"retry_after": retryAfter,
	})
}

// isProbeEndpoint checks if the path is a health or metrics endpoint
func isProbeEndpoint(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}
