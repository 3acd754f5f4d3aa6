package errors

// ErrorCode represents a machine-readable error identifier for client error handling.
type ErrorCode string

// Parse / format errors
const (
	ErrCodeInvalidHex           ErrorCode = "invalid_hex"
	ErrCodeInvalidAccountID     ErrorCode = "invalid_account_id"
	ErrCodeDeserializationError ErrorCode = "deserialization_error"
	ErrCodeInvalidFormat        ErrorCode = "invalid_format"
	ErrCodeInvalidRequest       ErrorCode = "invalid_request"
)

// Terms mismatch errors (payload.accepted vs. server requirements)
const (
	ErrCodeSchemeMismatch               ErrorCode = "scheme_mismatch"
	ErrCodeChainIDMismatch              ErrorCode = "chain_id_mismatch"
	ErrCodeRecipientMismatch            ErrorCode = "recipient_mismatch"
	ErrCodeAssetMismatch                ErrorCode = "asset_mismatch"
	ErrCodeInsufficientPayment          ErrorCode = "insufficient_payment"
	ErrCodeAcceptedRequirementsMismatch ErrorCode = "accepted_requirements_mismatch"
)

// Cryptographic errors
const (
	ErrCodeInvalidProof      ErrorCode = "invalid_proof"
	ErrCodeNoteBindingFailed ErrorCode = "note_binding_failed"
)

// Semantic errors
const (
	ErrCodePaymentNotFound    ErrorCode = "payment_not_found"
	ErrCodeTransactionExpired ErrorCode = "transaction_expired"
)

// External service errors (Miden node RPC)
const (
	ErrCodeConnectionError     ErrorCode = "connection_error"
	ErrCodeSubmissionError     ErrorCode = "submission_error"
	ErrCodeQueryError          ErrorCode = "query_error"
	ErrCodeTransactionRejected ErrorCode = "transaction_rejected"
	ErrCodeProviderError       ErrorCode = "provider_error"
)

// Internal/system errors
const (
	ErrCodeNotImplemented ErrorCode = "not_implemented"
	ErrCodeInternalError  ErrorCode = "internal_error"
	ErrCodeConfigError    ErrorCode = "config_error"
	ErrCodeRateLimited    ErrorCode = "rate_limited"
)

// IsRetryable returns whether an error code represents a retryable error.
// Retryable errors are transient network/service issues, not verification failures.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodeConnectionError,
		ErrCodeSubmissionError,
		ErrCodeQueryError,
		ErrCodeRateLimited:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	// 400 Bad Request - malformed request body
	case ErrCodeInvalidRequest:
		return 400

	// 422 Unprocessable Entity - payment verification failures
	case ErrCodeInvalidHex,
		ErrCodeInvalidAccountID,
		ErrCodeDeserializationError,
		ErrCodeInvalidFormat,
		ErrCodeSchemeMismatch,
		ErrCodeChainIDMismatch,
		ErrCodeRecipientMismatch,
		ErrCodeAssetMismatch,
		ErrCodeInsufficientPayment,
		ErrCodeAcceptedRequirementsMismatch,
		ErrCodeInvalidProof,
		ErrCodeNoteBindingFailed,
		ErrCodePaymentNotFound,
		ErrCodeTransactionExpired,
		ErrCodeTransactionRejected:
		return 422

	// 429 Too Many Requests
	case ErrCodeRateLimited:
		return 429

	// 502 Bad Gateway - upstream node errors
	case ErrCodeConnectionError,
		ErrCodeSubmissionError,
		ErrCodeQueryError,
		ErrCodeProviderError:
		return 502

	// 501 - capability disabled at build time
	case ErrCodeNotImplemented:
		return 501

	// 500 Internal Server Error
	default:
		return 500
	}
}
