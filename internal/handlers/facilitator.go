// Package handlers contains the facilitator's HTTP endpoint handlers.
package handlers

import (
	"errors"
	"log/slog"
	"time"

	"midenpay/internal/config"
	apierrors "midenpay/internal/errors"
	"midenpay/internal/metrics"
	"midenpay/internal/x402"
	x402miden "midenpay/internal/x402/miden"

	"github.com/gofiber/fiber/v3"
)

// Version is the application version, set at build time via ldflags.
var Version = "0.3.0"

// FacilitatorHandler handles the x402 facilitator endpoints
type FacilitatorHandler struct {
	config   *config.Config
	verifier *x402miden.Verifier
	settler  *x402miden.Settler
	provider *x402miden.Provider
	metrics  *metrics.Metrics
}

// NewFacilitatorHandler creates a new facilitator handler
func NewFacilitatorHandler(cfg *config.Config, verifier *x402miden.Verifier, settler *x402miden.Settler, provider *x402miden.Provider, metricsCollector *metrics.Metrics) *FacilitatorHandler {
	return &FacilitatorHandler{
		config:   cfg,
		verifier: verifier,
		settler:  settler,
		provider: provider,
		metrics:  metricsCollector,
	}
}

// RegisterRoutes registers the facilitator routes. The payment limiter is
// applied only to /verify and /settle.
func (h *FacilitatorHandler) RegisterRoutes(app *fiber.App, paymentLimiter fiber.Handler) {
	app.Get("/", h.Root)
	app.Get("/health", h.Health)
	app.Get("/supported", h.Supported)
	app.Post("/verify", paymentLimiter, h.Verify)
	app.Post("/settle", paymentLimiter, h.Settle)
}

// Root returns the service identity record
func (h *FacilitatorHandler) Root(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":  "x402-miden-facilitator",
		"version":  Version,
		"chain":    "miden",
		"scheme":   x402.SchemeExact,
		"faucetId": h.config.Miden.FaucetID,
	})
}

// supportedBody assembles the /supported payload: the one (version,
// scheme, network) kind this facilitator serves. The signer list is empty
// by design: Miden clients prove their own transactions.
func (h *FacilitatorHandler) supportedBody() x402.SupportedResponse {
	chainID := h.provider.ChainID()
	return x402.SupportedResponse{
		Kinds: []x402.SupportedKind{{
			X402Version: x402.Version,
			Scheme:      x402.SchemeExact,
			Network:     chainID,
			Extra:       nil,
		}},
		Extensions: []string{},
		Signers:    map[string][]string{chainID: h.provider.SignerAddresses()},
	}
}

// Supported lists the payment kinds this facilitator can verify and settle
func (h *FacilitatorHandler) Supported(c fiber.Ctx) error {
	return c.JSON(h.supportedBody())
}

// healthResponse is the /health body: supported kinds plus upstream state
type healthResponse struct {
	x402.SupportedResponse
	FaucetID string `json:"faucetId"`
	ChainTip uint32 `json:"chainTip"`
}

// Health probes the upstream node and checks the configured faucet id;
// 503 when either check fails
func (h *FacilitatorHandler) Health(c fiber.Ctx) error {
	status, err := x402miden.CheckHealth(c.Context(), h.provider, h.config.Miden.FaucetID)
	if err != nil {
		slog.Warn("health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(healthResponse{
		SupportedResponse: h.supportedBody(),
		FaucetID:          h.config.Miden.FaucetID,
		ChainTip:          status.ChainTip,
	})
}

// Verify checks a payment payload against requirements
func (h *FacilitatorHandler) Verify(c fiber.Ctx) error {
	start := time.Now()

	var req x402.VerifyRequest
	if err := c.Bind().Body(&req); err != nil {
		h.metrics.ObserveVerify(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	}

	resp, err := h.verifier.Verify(c.Context(), req)
	h.metrics.ObserveVerify(err)
	if err != nil {
		slog.Warn("verify failed",
			"error", err,
			"reason", errorReason(err),
			"payer", req.PaymentPayload.Payload.From,
			"duration", time.Since(start))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "verification_failed",
			"message": err.Error(),
		})
	}

	slog.Info("verify ok",
		"payer", resp.Payer,
		"privacy_mode", req.PaymentPayload.Payload.PrivacyMode,
		"duration", time.Since(start))
	return c.JSON(resp)
}

// Settle re-verifies and submits a payment to the network
func (h *FacilitatorHandler) Settle(c fiber.Ctx) error {
	start := time.Now()

	var req x402.SettleRequest
	if err := c.Bind().Body(&req); err != nil {
		h.metrics.ObserveSettle(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	}

	resp, err := h.settler.Settle(c.Context(), req)
	h.metrics.ObserveSettle(err)
	if err != nil {
		slog.Warn("settle failed",
			"error", err,
			"reason", errorReason(err),
			"payer", req.PaymentPayload.Payload.From,
			"duration", time.Since(start))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "settlement_failed",
			"message": err.Error(),
		})
	}

	slog.Info("settle ok",
		"payer", resp.Payer,
		"transaction", resp.Transaction,
		"duration", time.Since(start))
	return c.JSON(resp)
}

// errorReason extracts the machine-readable error code for logs
func errorReason(err error) string {
	if err == nil {
		return ""
	}
	var vErr x402.VerificationError
	if errors.As(err, &vErr) {
		return string(vErr.Code)
	}
	return string(apierrors.ErrCodeInternalError)
}
