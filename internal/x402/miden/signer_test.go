package miden

import (
	"context"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midenpay/internal/protocol"
	"midenpay/internal/x402"
)

func TestCreateAndProvePublic(t *testing.T) {
	signer := testSigner(t, 10_000_000)

	payment, err := signer.CreateAndProve(context.Background(), reqPayTo, reqAsset, 1_000_000, x402.PrivacyModePublic)
	require.NoError(t, err)
	assert.Empty(t, payment.NoteData, "public mode must not emit note data")

	raw, err := hex.DecodeString(payment.ProvenTransaction)
	require.NoError(t, err)
	tx, err := protocol.ProvenTransactionFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, payment.TransactionID, tx.ID().Hex())
	assert.NoError(t, protocol.NewStarkVerifier(0).Verify(tx), "signer output must carry a valid proof")

	inputsRaw, err := hex.DecodeString(payment.TransactionInputs)
	require.NoError(t, err)
	inputs, err := protocol.TransactionInputsFromBytes(inputsRaw)
	require.NoError(t, err)
	assert.Equal(t, tx.AccountID, inputs.AccountID, "transaction inputs must witness the proving account")
}

func TestCreateAndProveTrustedCapturesNote(t *testing.T) {
	signer := testSigner(t, 10_000_000)

	payment, err := signer.CreateAndProve(context.Background(), reqPayTo, reqAsset, 1_000_000, x402.PrivacyModeTrustedFacilitator)
	require.NoError(t, err)
	require.NotEmpty(t, payment.NoteData, "trusted mode must capture the full note before proving")

	noteRaw, err := hex.DecodeString(payment.NoteData)
	require.NoError(t, err)
	note, err := protocol.NoteFromBytes(noteRaw)
	require.NoError(t, err)
	assert.Equal(t, protocol.NoteTypePrivate, note.Metadata.Type)

	// The captured note binds to the proven transaction's header output.
	txRaw, err := hex.DecodeString(payment.ProvenTransaction)
	require.NoError(t, err)
	tx, err := protocol.ProvenTransactionFromBytes(txRaw)
	require.NoError(t, err)
	require.Len(t, tx.OutputNotes, 1)
	_, ok := tx.OutputNotes[0].Full()
	assert.False(t, ok, "proven transaction must carry the private note as header only")
	assert.Equal(t, note.ID(), tx.OutputNotes[0].ID(), "captured note id must match the on-chain commitment")
}

func TestCreateAndProveParseErrors(t *testing.T) {
	signer := testSigner(t, 10_000_000)

	var sErr SigningError
	_, err := signer.CreateAndProve(context.Background(), "not-an-account", reqAsset, 1, x402.PrivacyModePublic)
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "parse", sErr.Stage)

	_, err = signer.CreateAndProve(context.Background(), reqPayTo, "0xUPPER", 1, x402.PrivacyModePublic)
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "parse", sErr.Stage)
}

func TestCreateAndProveInsufficientFunds(t *testing.T) {
	signer := testSigner(t, 10)

	var sErr SigningError
	_, err := signer.CreateAndProve(context.Background(), reqPayTo, reqAsset, 1_000_000, x402.PrivacyModePublic)
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "execute", sErr.Stage)
}

// Concurrent signing over one client must serialize state mutation but
// still produce independently valid payments.
func TestSignerConcurrent(t *testing.T) {
	const workers = 8
	signer := testSigner(t, workers*1_000_000)

	var wg sync.WaitGroup
	payments := make([]SignedPayment, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payments[i], errs[i] = signer.CreateAndProve(context.Background(), reqPayTo, reqAsset, 1_000_000, x402.PrivacyModePublic)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, workers)
	verifier := protocol.NewStarkVerifier(0)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "worker %d", i)
		assert.False(t, seen[payments[i].TransactionID], "transaction ids must be unique")
		seen[payments[i].TransactionID] = true

		raw, err := hex.DecodeString(payments[i].ProvenTransaction)
		require.NoError(t, err)
		tx, err := protocol.ProvenTransactionFromBytes(raw)
		require.NoError(t, err)
		assert.NoError(t, verifier.Verify(tx), "worker %d proof", i)
	}
}

func TestSignerCancelledContext(t *testing.T) {
	signer := testSigner(t, 10_000_000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := signer.CreateAndProve(ctx, reqPayTo, reqAsset, 1, x402.PrivacyModePublic)
	assert.Error(t, err)
}
