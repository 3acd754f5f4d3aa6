package miden

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	apierrors "midenpay/internal/errors"
	"midenpay/internal/protocol"
	"midenpay/internal/x402"
)

// Verifier decides the validity of Miden payment payloads against server
// requirements. Per request it is a straight-line pipeline: requirements
// match, hex decode, STARK proof check, note inspection under the declared
// privacy mode, payer recovery. Every failure is terminal; there are no
// retries and no partial acceptance.
type Verifier struct {
	verifier protocol.TransactionVerifier
	provider *Provider // optional; enables the expiration check
}

// NewVerifier creates a verifier around a proof-checking capability. The
// provider may be nil, in which case the transaction-expiration check is
// skipped (pure offline verification).
func NewVerifier(txVerifier protocol.TransactionVerifier, provider *Provider) *Verifier {
	return &Verifier{verifier: txVerifier, provider: provider}
}

// Verify runs the verification pipeline and returns the accepting verdict
// or a VerificationError describing the terminal failure.
func (v *Verifier) Verify(ctx context.Context, req x402.VerifyRequest) (x402.VerifyResponse, error) {
	payload := req.PaymentPayload
	requirements := req.PaymentRequirements

	if err := checkRequirementsMatch(payload.Accepted, requirements); err != nil {
		return x402.VerifyResponse{}, err
	}

	// Without a cryptographic backend nothing can be accepted. The
	// requirements check above keeps the error shape deterministic.
	if _, unavailable := v.verifier.(protocol.UnavailableVerifier); unavailable {
		return x402.VerifyResponse{}, x402.NewVerificationError(
			apierrors.ErrCodeInvalidProof,
			errors.New("verification unavailable: no STARK verifier in this build"))
	}

	provenTx, _, err := decodePayloadBytes(payload.Payload)
	if err != nil {
		return x402.VerifyResponse{}, err
	}

	tx, err := protocol.ProvenTransactionFromBytes(provenTx)
	if err != nil {
		return x402.VerifyResponse{}, x402.NewVerificationError(
			apierrors.ErrCodeDeserializationError,
			fmt.Errorf("proven transaction: %w", err))
	}

	if err := v.verifier.Verify(tx); err != nil {
		return x402.VerifyResponse{}, x402.NewVerificationError(
			apierrors.ErrCodeInvalidProof, err)
	}

	if err := v.checkExpiration(ctx, tx); err != nil {
		return x402.VerifyResponse{}, err
	}

	recipient, err := protocol.AccountIDFromHex(requirements.PayTo)
	if err != nil {
		return x402.VerifyResponse{}, x402.NewVerificationError(
			apierrors.ErrCodeInvalidAccountID, fmt.Errorf("pay_to: %w", err))
	}
	faucet, err := protocol.AccountIDFromHex(requirements.Asset)
	if err != nil {
		return x402.VerifyResponse{}, x402.NewVerificationError(
			apierrors.ErrCodeInvalidAccountID, fmt.Errorf("asset: %w", err))
	}
	requiredAmount, err := ParseAmountString(requirements.Amount)
	if err != nil {
		return x402.VerifyResponse{}, x402.NewVerificationError(
			apierrors.ErrCodeInvalidFormat, err)
	}

	switch payload.Payload.PrivacyMode {
	case x402.PrivacyModeTrustedFacilitator:
		if payload.Payload.NoteData == "" {
			return x402.VerifyResponse{}, x402.NewVerificationError(
				apierrors.ErrCodeDeserializationError,
				errors.New("noteData is required for trusted_facilitator privacy mode"))
		}
		if err := verifyTrustedFacilitatorNote(tx, payload.Payload.NoteData, recipient, faucet, requiredAmount); err != nil {
			return x402.VerifyResponse{}, err
		}
	default:
		if err := verifyPublicNote(tx, recipient, faucet, requiredAmount); err != nil {
			return x402.VerifyResponse{}, err
		}
	}

	payer := tx.AccountID.Hex()
	if payload.Payload.From != payer {
		return x402.VerifyResponse{}, x402.NewVerificationError(
			apierrors.ErrCodeInvalidFormat,
			fmt.Errorf("payload sender %s does not match proven transaction account %s",
				payload.Payload.From, payer))
	}

	return x402.Valid(payer), nil
}

// checkExpiration rejects transactions whose expiration block is already
// below the chain tip. When no provider is attached, or the tip query
// fails, verification proceeds without the check.
func (v *Verifier) checkExpiration(ctx context.Context, tx protocol.ProvenTransaction) error {
	if v.provider == nil {
		return nil
	}
	height, err := v.provider.BlockHeight(ctx)
	if err != nil {
		slog.Warn("expiration check skipped: chain tip unavailable", "error", err)
		return nil
	}
	if tx.ExpirationBlock < height {
		return x402.NewVerificationError(
			apierrors.ErrCodeTransactionExpired,
			fmt.Errorf("expired at block %d, chain tip is %d", tx.ExpirationBlock, height))
	}
	return nil
}

// checkRequirementsMatch compares the client-echoed accepted terms against
// the server's requirements field by field. Amounts compare numerically:
// the accepted amount must cover the required amount.
func checkRequirementsMatch(accepted, requirements x402.PaymentRequirements) error {
	if accepted.Scheme != requirements.Scheme {
		return x402.NewVerificationError(apierrors.ErrCodeSchemeMismatch,
			fmt.Errorf("expected %s, got %s", requirements.Scheme, accepted.Scheme))
	}
	if accepted.Network != requirements.Network {
		return x402.NewVerificationError(apierrors.ErrCodeChainIDMismatch,
			fmt.Errorf("expected %s, got %s", requirements.Network, accepted.Network))
	}
	if accepted.PayTo != requirements.PayTo {
		return x402.NewVerificationError(apierrors.ErrCodeRecipientMismatch,
			fmt.Errorf("expected %s, got %s", requirements.PayTo, accepted.PayTo))
	}
	if accepted.Asset != requirements.Asset {
		return x402.NewVerificationError(apierrors.ErrCodeAssetMismatch,
			fmt.Errorf("expected %s, got %s", requirements.Asset, accepted.Asset))
	}

	requiredAmount, err := ParseAmountString(requirements.Amount)
	if err != nil {
		return x402.NewVerificationError(apierrors.ErrCodeInvalidFormat,
			fmt.Errorf("required amount: %w", err))
	}
	acceptedAmount, err := ParseAmountString(accepted.Amount)
	if err != nil {
		return x402.NewVerificationError(apierrors.ErrCodeInvalidFormat,
			fmt.Errorf("accepted amount: %w", err))
	}
	if acceptedAmount < requiredAmount {
		return x402.NewVerificationError(apierrors.ErrCodeInsufficientPayment,
			fmt.Errorf("required %d, got %d", requiredAmount, acceptedAmount))
	}
	return nil
}

// decodePayloadBytes hex-decodes the proven transaction and transaction
// inputs. Shared by verify and settle so both classify hex failures the
// same way.
func decodePayloadBytes(payload x402.MidenExactPayload) ([]byte, []byte, error) {
	provenTx, err := hex.DecodeString(payload.ProvenTransaction)
	if err != nil {
		return nil, nil, x402.NewVerificationError(apierrors.ErrCodeInvalidHex,
			fmt.Errorf("provenTransaction: %w", err))
	}
	txInputs, err := hex.DecodeString(payload.TransactionInputs)
	if err != nil {
		return nil, nil, x402.NewVerificationError(apierrors.ErrCodeInvalidHex,
			fmt.Errorf("transactionInputs: %w", err))
	}
	return provenTx, txInputs, nil
}
