package x402

import (
	"fmt"

	"midenpay/internal/errors"
)

// VerificationError classifies failures encountered during payment
// verification and settlement.
type VerificationError struct {
	Code    errors.ErrorCode // Machine-readable error code
	Message string           // User-facing message
	Err     error            // Technical error for logging
}

func (e VerificationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e VerificationError) Unwrap() error {
	return e.Err
}

// NewVerificationError creates a verification error with a user-facing message.
func NewVerificationError(code errors.ErrorCode, err error) VerificationError {
	return VerificationError{
		Code:    code,
		Message: userMessage(code, err),
		Err:     err,
	}
}

// userMessage converts error codes to messages safe to surface on the wire.
// The kind-specific detail is kept; backtraces and internals are not.
func userMessage(code errors.ErrorCode, err error) string {
	detail := ""
	if err != nil {
		detail = ": " + err.Error()
	}
	switch code {
	case errors.ErrCodeInvalidHex:
		return "Invalid hex encoding" + detail
	case errors.ErrCodeInvalidAccountID:
		return "Invalid account id" + detail
	case errors.ErrCodeDeserializationError:
		return "Deserialization error" + detail
	case errors.ErrCodeInvalidFormat:
		return "Invalid format" + detail
	case errors.ErrCodeSchemeMismatch:
		return "Scheme mismatch" + detail
	case errors.ErrCodeChainIDMismatch:
		return "Chain ID mismatch" + detail
	case errors.ErrCodeRecipientMismatch:
		return "Recipient mismatch" + detail
	case errors.ErrCodeAssetMismatch:
		return "Asset mismatch" + detail
	case errors.ErrCodeInsufficientPayment:
		return "Insufficient payment" + detail
	case errors.ErrCodeAcceptedRequirementsMismatch:
		return "Accepted requirements do not match provided requirements" + detail
	case errors.ErrCodeInvalidProof:
		return "Invalid proof" + detail
	case errors.ErrCodeNoteBindingFailed:
		return "Note binding verification failed" + detail
	case errors.ErrCodePaymentNotFound:
		return "Payment not found in transaction outputs" + detail
	case errors.ErrCodeTransactionExpired:
		return "Transaction expired" + detail
	case errors.ErrCodeTransactionRejected:
		return "Transaction rejected by the node" + detail
	case errors.ErrCodeConnectionError:
		return "Node connection error" + detail
	case errors.ErrCodeSubmissionError:
		return "Transaction submission failed" + detail
	case errors.ErrCodeQueryError:
		return "Account query failed" + detail
	case errors.ErrCodeProviderError:
		return "Provider error" + detail
	case errors.ErrCodeNotImplemented:
		return "Not implemented" + detail
	default:
		return fmt.Sprintf("Payment verification failed: %s%s", code, detail)
	}
}
