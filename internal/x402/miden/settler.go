package miden

import (
	"context"

	"midenpay/internal/x402"
)

// Settler relays verified payments to the Miden network.
type Settler struct {
	verifier *Verifier
	provider *Provider
}

// NewSettler creates a settler that re-verifies through the given verifier
// before submitting through the provider.
func NewSettler(verifier *Verifier, provider *Provider) *Settler {
	return &Settler{verifier: verifier, provider: provider}
}

// Settle re-runs the full verification pipeline, then submits the proven
// transaction. A caller that verified earlier could interleave a different
// payload between the two calls, so settle never trusts a prior verify.
func (s *Settler) Settle(ctx context.Context, req x402.SettleRequest) (x402.SettleResponse, error) {
	if _, err := s.verifier.Verify(ctx, req); err != nil {
		return x402.SettleResponse{}, err
	}

	// The proof check above was the expensive part; decoding again is cheap
	// and keeps verify and settle classification identical.
	provenTx, txInputs, err := decodePayloadBytes(req.PaymentPayload.Payload)
	if err != nil {
		return x402.SettleResponse{}, err
	}

	txID, err := s.provider.SubmitProvenTransaction(ctx, provenTx, txInputs)
	if err != nil {
		return x402.SettleResponse{}, err
	}

	return x402.SettleResponse{
		Success:     true,
		Payer:       req.PaymentPayload.Payload.From,
		Transaction: txID,
		Network:     s.provider.ChainID(),
	}, nil
}
