package miden

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"midenpay/internal/protocol"
	"midenpay/internal/x402"
)

// Fixed fixtures shared across the facilitator tests.
const (
	reqPayTo  = "0xaabbccddeeff00112233aabbccddee"
	reqAsset  = "0x37d5977a8e16d8205a360820f0230f"
	reqChain  = "miden:testnet"
	reqAmount = "1000000"
	payerHex  = "0x0b50cc0489f8f1101e946691aa89ca"
)

func mustAccountID(t *testing.T, hexID string) protocol.AccountID {
	t.Helper()
	id, err := protocol.AccountIDFromHex(hexID)
	require.NoError(t, err)
	return id
}

func testRequirements() x402.PaymentRequirements {
	return x402.PaymentRequirements{
		Scheme:            x402.SchemeExact,
		Network:           reqChain,
		PayTo:             reqPayTo,
		Asset:             reqAsset,
		Amount:            reqAmount,
		MaxTimeoutSeconds: 300,
	}
}

// signedFixture builds a real proven P2ID payment from payerHex to payTo
// using the local client and prover.
func signedFixture(t *testing.T, payTo string, amount uint64, mode x402.PrivacyMode) x402.MidenExactPayload {
	t.Helper()

	client := protocol.NewClient(mustAccountID(t, payerHex), 100, protocol.Word{1, 1, 1, 1})
	client.Fund(mustAccountID(t, reqAsset), amount*3)
	signer := NewTransactionSigner(client)

	payment, err := signer.CreateAndProve(context.Background(), payTo, reqAsset, amount, mode)
	require.NoError(t, err)

	return x402.MidenExactPayload{
		From:              payerHex,
		ProvenTransaction: payment.ProvenTransaction,
		TransactionID:     payment.TransactionID,
		TransactionInputs: payment.TransactionInputs,
		PrivacyMode:       mode,
		NoteData:          payment.NoteData,
	}
}

func verifyRequest(payload x402.MidenExactPayload, accepted, requirements x402.PaymentRequirements) x402.VerifyRequest {
	return x402.VerifyRequest{
		X402Version: x402.Version,
		PaymentPayload: x402.PaymentPayload{
			X402Version: x402.Version,
			Accepted:    accepted,
			Payload:     payload,
		},
		PaymentRequirements: requirements,
	}
}

// corruptHex flips one byte of a hex string at the given byte offset.
func corruptHex(t *testing.T, hexStr string, byteOffset int) string {
	t.Helper()
	raw, err := hex.DecodeString(hexStr)
	require.NoError(t, err)
	if byteOffset < 0 {
		byteOffset = len(raw) + byteOffset
	}
	raw[byteOffset] ^= 0xff
	return hex.EncodeToString(raw)
}
