// Package server wires the facilitator's HTTP surface: middleware, routes,
// and graceful shutdown.
package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"midenpay/internal/config"
	"midenpay/internal/handlers"
	"midenpay/internal/metrics"
	"midenpay/internal/middleware"
	x402miden "midenpay/internal/x402/miden"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// Server represents the HTTP server
type Server struct {
	app    *fiber.App
	config *config.Config
}

// New creates a new server instance
func New(cfg *config.Config, verifier *x402miden.Verifier, settler *x402miden.Settler, provider *x402miden.Provider, metricsCollector *metrics.Metrics) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "midenpay facilitator",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ProxyHeader:  cfg.Server.ProxyHeader,
		ErrorHandler: errorHandler,
	})

	s := &Server{
		app:    app,
		config: cfg,
	}

	s.setupMiddleware(metricsCollector)
	s.setupRoutes(verifier, settler, provider, metricsCollector)

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware(metricsCollector *metrics.Metrics) {
	// Recovery middleware
	s.app.Use(recover.New())

	// Request id + security headers
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.SecurityHeaders())

	// CORS middleware - configured for the x402 payment headers
	if len(s.config.Server.CORSAllowedOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins:  s.config.Server.CORSAllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "PAYMENT-REQUIRED", "PAYMENT-SIGNATURE"},
			ExposeHeaders: []string{"X-Request-ID"},
			MaxAge:        300,
		}))
	}

	// Global rate limiting (probes exempt)
	rlm := middleware.NewRateLimitMiddleware(&s.config.RateLimit)
	s.app.Use(rlm.Middleware())
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(verifier *x402miden.Verifier, settler *x402miden.Settler, provider *x402miden.Provider, metricsCollector *metrics.Metrics) {
	rlm := middleware.NewRateLimitMiddleware(&s.config.RateLimit)

	// Identity, health, and supported kinds (no payment-path limits)
	facilitatorHandler := handlers.NewFacilitatorHandler(s.config, verifier, settler, provider, metricsCollector)
	facilitatorHandler.RegisterRoutes(s.app, rlm.PaymentLimiter())

	// Prometheus-format metrics, optionally bearer-protected
	s.app.Get("/metrics", s.metricsHandler(metricsCollector))

	// 404 handler
	s.app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "The requested endpoint does not exist",
			"path":    c.Path(),
		})
	})
}

// metricsHandler renders the counters as Prometheus text. When an admin
// key is configured, requests must send "Authorization: Bearer {key}".
func (s *Server) metricsHandler(metricsCollector *metrics.Metrics) fiber.Handler {
	return func(c fiber.Ctx) error {
		if key := s.config.Server.AdminMetricsKey; key != "" {
			expected := "Bearer " + key
			if subtle.ConstantTimeCompare([]byte(c.Get("Authorization")), []byte(expected)) != 1 {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error":   "unauthorized",
					"message": "Invalid or missing admin API key",
				})
			}
		}
		c.Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		return c.SendString(metricsCollector.Render())
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting facilitator", "addr", s.config.Server.Address)
	return s.app.Listen(s.config.Server.Address)
}

// Shutdown gracefully shuts down the server: stop accepting, drain in-flight
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server")
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// errorHandler handles errors globally
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	slog.Error("request failed",
		"error", err,
		"path", c.Path(),
		"request_id", middleware.GetRequestID(c))

	return c.Status(code).JSON(fiber.Map{
		"error":      message,
		"status":     code,
		"timestamp":  time.Now().Unix(),
		"request_id": middleware.GetRequestID(c),
	})
}
