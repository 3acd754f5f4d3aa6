// Package x402 implements the x402 payment-protocol wire types for the
// Miden "exact" scheme: payment requirements, payment payloads, and the
// facilitator verify/settle request/response bodies.
//
// Reference: https://github.com/coinbase/x402
package x402

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Version is the x402 protocol version this package speaks.
const Version = 2

// SchemeExact is the only payment scheme supported on Miden.
const SchemeExact = "exact"

// HTTP headers carrying base64-encoded protocol JSON.
const (
	HeaderPaymentRequired  = "PAYMENT-REQUIRED"
	HeaderPaymentSignature = "PAYMENT-SIGNATURE"
)

// PrivacyMode selects how the payment note is created and verified.
type PrivacyMode string

const (
	// PrivacyModePublic notes are fully visible on-chain (default).
	PrivacyModePublic PrivacyMode = "public"
	// PrivacyModeTrustedFacilitator notes are private on-chain; the full
	// note is shared off-chain with the facilitator via the payload.
	PrivacyModeTrustedFacilitator PrivacyMode = "trusted_facilitator"
)

// UnmarshalJSON rejects unknown privacy mode strings.
func (m *PrivacyMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch PrivacyMode(s) {
	case PrivacyModePublic, PrivacyModeTrustedFacilitator:
		*m = PrivacyMode(s)
		return nil
	default:
		return fmt.Errorf("x402: unknown privacy mode %q", s)
	}
}

// PaymentRequirements is a single price tag: the server's terms for one
// acceptable payment.
type PaymentRequirements struct {
	Scheme            string          `json:"scheme"`
	Network           string          `json:"network"`
	PayTo             string          `json:"payTo"`
	Asset             string          `json:"asset"`
	Amount            string          `json:"amount"`
	MaxTimeoutSeconds uint32          `json:"maxTimeoutSeconds"`
	Extra             json.RawMessage `json:"extra,omitempty"`
}

// PaymentRequired is the HTTP 402 response body. Accepts entries are kept
// raw so a client can skip entries it cannot parse without rejecting the
// whole envelope.
type PaymentRequired struct {
	X402Version int               `json:"x402Version"`
	Error       string            `json:"error,omitempty"`
	Resource    string            `json:"resource,omitempty"`
	Accepts     []json.RawMessage `json:"accepts"`
}

// NewPaymentRequired assembles a 402 body from price tags.
func NewPaymentRequired(resource string, accepts ...PaymentRequirements) (PaymentRequired, error) {
	required := PaymentRequired{
		X402Version: Version,
		Resource:    resource,
		Accepts:     make([]json.RawMessage, 0, len(accepts)),
	}
	for _, req := range accepts {
		raw, err := json.Marshal(req)
		if err != nil {
			return PaymentRequired{}, fmt.Errorf("x402: marshal requirements: %w", err)
		}
		required.Accepts = append(required.Accepts, raw)
	}
	return required, nil
}

// MidenExactPayload is the Miden-specific proof bundle: the client-proven
// transaction plus the witnesses the node needs to admit it.
type MidenExactPayload struct {
	// From is the sender's account id (canonical hex).
	From string `json:"from"`
	// ProvenTransaction is the serialized proven transaction, lowercase hex.
	ProvenTransaction string `json:"provenTransaction"`
	// TransactionID is the canonical transaction id, hex.
	TransactionID string `json:"transactionId"`
	// TransactionInputs is the serialized state witness bundle, lowercase hex.
	TransactionInputs string `json:"transactionInputs"`
	// PrivacyMode defaults to public when the field is absent, for backward
	// compatibility with older payloads.
	PrivacyMode PrivacyMode `json:"privacyMode"`
	// NoteData carries the serialized full note (hex) and is present exactly
	// when PrivacyMode is trusted_facilitator.
	NoteData string `json:"noteData,omitempty"`
}

// UnmarshalJSON applies the public-mode default when privacyMode is absent.
func (p *MidenExactPayload) UnmarshalJSON(data []byte) error {
	type alias MidenExactPayload
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.PrivacyMode == "" {
		decoded.PrivacyMode = PrivacyModePublic
	}
	*p = MidenExactPayload(decoded)
	return nil
}

// PaymentPayload is the client-to-facilitator envelope: the chosen price
// tag echoed back plus the Miden proof bundle.
type PaymentPayload struct {
	X402Version int                 `json:"x402Version"`
	Accepted    PaymentRequirements `json:"accepted"`
	Payload     MidenExactPayload   `json:"payload"`
	Resource    string              `json:"resource,omitempty"`
}

// VerifyRequest is the facilitator /verify body.
type VerifyRequest struct {
	X402Version         int                 `json:"x402Version"`
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// SettleRequest has the same shape as VerifyRequest.
type SettleRequest = VerifyRequest

// VerifyResponse is the verification verdict.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	Payer         string `json:"payer,omitempty"`
	InvalidReason string `json:"invalidReason,omitempty"`
}

// Valid builds the accepting verdict.
func Valid(payer string) VerifyResponse {
	return VerifyResponse{IsValid: true, Payer: payer}
}

// Invalid builds the rejecting verdict.
func Invalid(reason string) VerifyResponse {
	return VerifyResponse{IsValid: false, InvalidReason: reason}
}

// SettleResponse is the settlement outcome.
type SettleResponse struct {
	Success     bool   `json:"success"`
	Payer       string `json:"payer,omitempty"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SupportedKind describes one (version, scheme, network) triple the
// facilitator serves.
type SupportedKind struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Extra       json.RawMessage `json:"extra"`
}

// SupportedResponse is the /supported body.
type SupportedResponse struct {
	Kinds      []SupportedKind     `json:"kinds"`
	Extensions []string            `json:"extensions"`
	Signers    map[string][]string `json:"signers"`
}

// EncodeHeader renders a protocol value as the base64 JSON form carried in
// the PAYMENT-REQUIRED / PAYMENT-SIGNATURE headers.
func EncodeHeader(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("x402: encode header: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// decodeHeader accepts base64 JSON (padded or raw) and, for convenience in
// tests and curl sessions, bare JSON.
func decodeHeader(header string) ([]byte, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, errors.New("x402: empty payment header")
	}
	if strings.HasPrefix(raw, "{") {
		return []byte(raw), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("x402: decode base64: %w", err)
		}
	}
	return decoded, nil
}

// ParsePaymentRequired decodes a PAYMENT-REQUIRED header.
func ParsePaymentRequired(header string) (PaymentRequired, error) {
	data, err := decodeHeader(header)
	if err != nil {
		return PaymentRequired{}, err
	}
	var required PaymentRequired
	if err := json.Unmarshal(data, &required); err != nil {
		return PaymentRequired{}, fmt.Errorf("x402: parse payment required: %w", err)
	}
	return required, nil
}

// ParsePaymentPayload decodes a PAYMENT-SIGNATURE header.
func ParsePaymentPayload(header string) (PaymentPayload, error) {
	data, err := decodeHeader(header)
	if err != nil {
		return PaymentPayload{}, err
	}
	var payload PaymentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return PaymentPayload{}, fmt.Errorf("x402: parse payment payload: %w", err)
	}
	if payload.Payload.ProvenTransaction == "" {
		return payload, errors.New("x402: payment payload missing proven transaction")
	}
	return payload, nil
}
