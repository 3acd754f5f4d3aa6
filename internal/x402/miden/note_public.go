package miden

import (
	"errors"

	apierrors "midenpay/internal/errors"
	"midenpay/internal/protocol"
	"midenpay/internal/x402"
)

// verifyPublicNote checks that the proven transaction contains a public
// P2ID note paying the required recipient at least the required amount of
// the required faucet's token. Only full (on-chain-visible) output notes
// can satisfy public mode; header-only notes are skipped.
func verifyPublicNote(tx protocol.ProvenTransaction, recipient, faucet protocol.AccountID, amount uint64) error {
	scriptRoot := protocol.P2IDScriptRoot()

	for _, output := range tx.OutputNotes {
		note, ok := output.Full()
		if !ok {
			continue
		}
		if note.Recipient.ScriptRoot != scriptRoot {
			continue
		}
		target, ok := protocol.P2IDTarget(note.Recipient.Inputs)
		if !ok || target != recipient {
			continue
		}
		for _, asset := range note.Assets.Fungible() {
			if asset.Faucet == faucet && asset.Amount >= amount {
				return nil
			}
		}
	}

	return x402.NewVerificationError(apierrors.ErrCodePaymentNotFound,
		errors.New("no public P2ID output note matches the required recipient, faucet, and amount"))
}
