package miden

import (
	"context"
	"encoding/json"

	"midenpay/internal/x402"
)

// PaymentCandidate is one accepted payment term the client can satisfy.
// Each candidate is independently signable; selection among candidates is
// the caller's concern.
type PaymentCandidate struct {
	ChainID     string
	Asset       string
	Amount      uint64
	Scheme      string
	X402Version int
	PayTo       string

	sign func(ctx context.Context) (x402.PaymentPayload, error)
}

// Sign constructs, proves, and packages the payment for this candidate.
func (c PaymentCandidate) Sign(ctx context.Context) (x402.PaymentPayload, error) {
	return c.sign(ctx)
}

// Assembler turns 402 responses into signable payment candidates.
type Assembler struct {
	signer      *TransactionSigner
	privacyMode x402.PrivacyMode
}

// NewAssembler creates an assembler that signs with the given signer and
// creates notes under the given privacy mode. An empty mode means public.
func NewAssembler(signer *TransactionSigner, privacyMode x402.PrivacyMode) *Assembler {
	if privacyMode == "" {
		privacyMode = x402.PrivacyModePublic
	}
	return &Assembler{signer: signer, privacyMode: privacyMode}
}

// Accept parses a 402 envelope and returns a candidate for every accepted
// entry this client recognizes: parseable requirements, miden-namespace
// network, integral amount. Unrecognized entries are skipped silently.
func (a *Assembler) Accept(required x402.PaymentRequired) []PaymentCandidate {
	candidates := make([]PaymentCandidate, 0, len(required.Accepts))

	for _, raw := range required.Accepts {
		var requirements x402.PaymentRequirements
		if err := json.Unmarshal(raw, &requirements); err != nil {
			continue
		}
		if _, err := ParseChainID(requirements.Network); err != nil {
			continue
		}
		amount, err := ParseAmountString(requirements.Amount)
		if err != nil {
			continue
		}

		candidates = append(candidates, PaymentCandidate{
			ChainID:     requirements.Network,
			Asset:       requirements.Asset,
			Amount:      amount,
			Scheme:      requirements.Scheme,
			X402Version: x402.Version,
			PayTo:       requirements.PayTo,
			sign: func(ctx context.Context) (x402.PaymentPayload, error) {
				payment, err := a.signer.CreateAndProve(ctx, requirements.PayTo, requirements.Asset, amount, a.privacyMode)
				if err != nil {
					return x402.PaymentPayload{}, err
				}
				return x402.PaymentPayload{
					X402Version: x402.Version,
					Accepted:    requirements,
					Resource:    required.Resource,
					Payload: x402.MidenExactPayload{
						From:              a.signer.AccountID(),
						ProvenTransaction: payment.ProvenTransaction,
						TransactionID:     payment.TransactionID,
						TransactionInputs: payment.TransactionInputs,
						PrivacyMode:       a.privacyMode,
						NoteData:          payment.NoteData,
					},
				}, nil
			},
		})
	}

	return candidates
}
