package miden

import (
	"encoding/hex"
	"errors"
	"fmt"

	apierrors "midenpay/internal/errors"
	"midenpay/internal/protocol"
	"midenpay/internal/x402"
)

// verifyTrustedFacilitatorNote checks a private P2ID payment using the full
// note shared off-chain. The note id computed from the off-chain note must
// match an output note of the proven transaction: that id equality is the
// cryptographic binding between the shared data and the on-chain
// commitment. The payment checks then run against the off-chain note.
func verifyTrustedFacilitatorNote(tx protocol.ProvenTransaction, noteDataHex string, recipient, faucet protocol.AccountID, amount uint64) error {
	noteBytes, err := hex.DecodeString(noteDataHex)
	if err != nil {
		return x402.NewVerificationError(apierrors.ErrCodeInvalidHex,
			fmt.Errorf("invalid hex in noteData: %w", err))
	}

	note, err := protocol.NoteFromBytes(noteBytes)
	if err != nil {
		return x402.NewVerificationError(apierrors.ErrCodeDeserializationError,
			fmt.Errorf("deserialize note: %w", err))
	}

	noteID := note.ID()
	bound := false
	for _, output := range tx.OutputNotes {
		if output.ID() == noteID {
			bound = true
			break
		}
	}
	if !bound {
		return x402.NewVerificationError(apierrors.ErrCodeNoteBindingFailed,
			fmt.Errorf("note id %s does not match any output note in the proven transaction", noteID.Hex()))
	}

	if note.Recipient.ScriptRoot != protocol.P2IDScriptRoot() {
		return x402.NewVerificationError(apierrors.ErrCodeNoteBindingFailed,
			errors.New("note is not a P2ID note (script root mismatch)"))
	}

	target, ok := protocol.P2IDTarget(note.Recipient.Inputs)
	if !ok {
		return x402.NewVerificationError(apierrors.ErrCodeNoteBindingFailed,
			errors.New("P2ID note has insufficient inputs"))
	}
	if target != recipient {
		return x402.NewVerificationError(apierrors.ErrCodeRecipientMismatch,
			fmt.Errorf("expected %s, got %s", recipient, target))
	}

	for _, asset := range note.Assets.Fungible() {
		if asset.Faucet == faucet && asset.Amount >= amount {
			return nil
		}
	}
	return x402.NewVerificationError(apierrors.ErrCodePaymentNotFound,
		errors.New("off-chain note does not contain the required faucet and amount"))
}
