package x402

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMidenExactPayloadRoundTrip(t *testing.T) {
	payload := MidenExactPayload{
		From:              "0xaabbccddeeff00112233aabbccddee",
		ProvenTransaction: "deadbeef",
		TransactionID:     "1234",
		TransactionInputs: "cafebabe",
		PrivacyMode:       PrivacyModePublic,
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded MidenExactPayload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestMidenExactPayloadTrustedRoundTrip(t *testing.T) {
	payload := MidenExactPayload{
		From:              "0xaabbccddeeff00112233aabbccddee",
		ProvenTransaction: "deadbeef",
		TransactionID:     "1234",
		TransactionInputs: "cafebabe",
		PrivacyMode:       PrivacyModeTrustedFacilitator,
		NoteData:          "aabbccdd",
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"privacyMode":"trusted_facilitator"`)
	assert.Contains(t, string(raw), `"noteData":"aabbccdd"`)

	var decoded MidenExactPayload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestMidenExactPayloadBackwardCompat(t *testing.T) {
	// Old payloads without privacyMode and noteData default to public.
	raw := `{
		"from": "0xaabbccddeeff00112233aabbccddee",
		"provenTransaction": "deadbeef",
		"transactionId": "1234",
		"transactionInputs": "cafebabe"
	}`

	var payload MidenExactPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	assert.Equal(t, PrivacyModePublic, payload.PrivacyMode)
	assert.Empty(t, payload.NoteData)
}

func TestMidenExactPayloadIgnoresUnknownFields(t *testing.T) {
	raw := `{
		"from": "0xaabbccddeeff00112233aabbccddee",
		"provenTransaction": "deadbeef",
		"transactionId": "1234",
		"transactionInputs": "cafebabe",
		"futureField": {"nested": true}
	}`
	var payload MidenExactPayload
	assert.NoError(t, json.Unmarshal([]byte(raw), &payload), "unknown fields must be ignored")
}

func TestPrivacyModeRejectsUnknown(t *testing.T) {
	var mode PrivacyMode
	assert.Error(t, json.Unmarshal([]byte(`"opaque"`), &mode))
}

func TestPaymentRequirementsRoundTrip(t *testing.T) {
	requirements := PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           "miden:testnet",
		PayTo:             "0xaabbccddeeff00112233aabbccddee",
		Asset:             "0x37d5977a8e16d8205a360820f0230f",
		Amount:            "1000000",
		MaxTimeoutSeconds: 300,
	}

	raw, err := json.Marshal(requirements)
	require.NoError(t, err)
	for _, key := range []string{`"payTo"`, `"maxTimeoutSeconds"`, `"scheme"`, `"network"`, `"asset"`, `"amount"`} {
		assert.Contains(t, string(raw), key, "camelCase wire key missing")
	}

	var decoded PaymentRequirements
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, requirements, decoded)
}

func TestVerifyResponseExactFields(t *testing.T) {
	tests := []struct {
		name     string
		resp     VerifyResponse
		wantKeys []string
	}{
		{"valid", Valid("0x0b50cc0489f8f1101e946691aa89ca"), []string{"isValid", "payer"}},
		{"invalid", Invalid("insufficient payment"), []string{"isValid", "invalidReason"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.resp)
			require.NoError(t, err)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal(raw, &decoded))

			keys := make([]string, 0, len(decoded))
			for k := range decoded {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.wantKeys, keys, "no extra wire fields allowed")
		})
	}
}

func TestSettleResponseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		resp SettleResponse
	}{
		{"success", SettleResponse{Success: true, Payer: "0xaabbccddeeff00112233aabbccddee", Transaction: "abcd", Network: "miden:testnet"}},
		{"failure", SettleResponse{Success: false, Error: "node rejected transaction"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.resp)
			require.NoError(t, err)

			var decoded SettleResponse
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, tt.resp, decoded)
		})
	}
}

func TestHeaderEncodeParseRoundTrip(t *testing.T) {
	requirements := PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           "miden:testnet",
		PayTo:             "0xaabbccddeeff00112233aabbccddee",
		Asset:             "0x37d5977a8e16d8205a360820f0230f",
		Amount:            "1000000",
		MaxTimeoutSeconds: 300,
	}
	required, err := NewPaymentRequired("premium-data", requirements)
	require.NoError(t, err)

	header, err := EncodeHeader(required)
	require.NoError(t, err)

	decoded, err := ParsePaymentRequired(header)
	require.NoError(t, err)
	assert.Equal(t, Version, decoded.X402Version)
	require.Len(t, decoded.Accepts, 1)

	var entry PaymentRequirements
	require.NoError(t, json.Unmarshal(decoded.Accepts[0], &entry))
	assert.Equal(t, requirements, entry)
}

func TestParsePaymentPayloadAcceptsRawJSON(t *testing.T) {
	raw := `{
		"x402Version": 2,
		"accepted": {"scheme":"exact","network":"miden:testnet","payTo":"0xaabbccddeeff00112233aabbccddee","asset":"0x37d5977a8e16d8205a360820f0230f","amount":"1000000","maxTimeoutSeconds":300},
		"payload": {"from":"0x0b50cc0489f8f1101e946691aa89ca","provenTransaction":"deadbeef","transactionId":"1234","transactionInputs":"cafebabe"}
	}`
	payload, err := ParsePaymentPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, PrivacyModePublic, payload.Payload.PrivacyMode)
}

func TestParsePaymentPayloadErrors(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"bad base64", "!!not-base64!!"},
		{"missing proven transaction", `{"x402Version":2,"accepted":{},"payload":{"from":"0x00"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePaymentPayload(tt.header)
			assert.Error(t, err)
		})
	}
}
