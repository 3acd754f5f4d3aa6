package miden

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"midenpay/internal/protocol"
	"midenpay/internal/x402"
)

// SigningError classifies client-side payment construction failures.
type SigningError struct {
	Stage string // parse | execute | capture | prove
	Err   error
}

func (e SigningError) Error() string {
	return fmt.Sprintf("x402 miden signer: %s: %v", e.Stage, e.Err)
}

func (e SigningError) Unwrap() error { return e.Err }

// SignedPayment is the hex-serialized output of CreateAndProve, ready to
// drop into a MidenExactPayload.
type SignedPayment struct {
	ProvenTransaction string
	TransactionID     string
	TransactionInputs string
	NoteData          string // set only in trusted-facilitator mode
}

// TransactionSigner builds, executes, and proves P2ID payments. It wraps a
// mutable rollup client (store + RNG) behind a mutex: only one signing call
// mutates the client at a time, but the CPU-bound proving step runs outside
// the critical section so concurrent signers make progress.
type TransactionSigner struct {
	mu     sync.Mutex
	client *protocol.Client
}

// NewTransactionSigner takes exclusive ownership of the client.
func NewTransactionSigner(client *protocol.Client) *TransactionSigner {
	return &TransactionSigner{client: client}
}

// AccountID returns the sender's account id in canonical hex form.
func (s *TransactionSigner) AccountID() string {
	return s.client.AccountID().Hex()
}

// CreateAndProve builds a P2ID note paying amount of the faucet's token to
// recipient, executes the transaction, proves it, and serializes the
// results. In trusted-facilitator mode the note is created private and the
// full note is captured from the execution result before proving, since
// the prover irreversibly reduces private notes to headers.
func (s *TransactionSigner) CreateAndProve(ctx context.Context, recipient, faucet string, amount uint64, mode x402.PrivacyMode) (SignedPayment, error) {
	recipientID, err := protocol.AccountIDFromHex(recipient)
	if err != nil {
		return SignedPayment{}, SigningError{Stage: "parse", Err: fmt.Errorf("recipient: %w", err)}
	}
	faucetID, err := protocol.AccountIDFromHex(faucet)
	if err != nil {
		return SignedPayment{}, SigningError{Stage: "parse", Err: fmt.Errorf("faucet: %w", err)}
	}

	noteType := protocol.NoteTypePublic
	if mode == x402.PrivacyModeTrustedFacilitator {
		noteType = protocol.NoteTypePrivate
	}
	asset := protocol.FungibleAsset{Faucet: faucetID, Amount: amount}

	if err := ctx.Err(); err != nil {
		return SignedPayment{}, SigningError{Stage: "execute", Err: err}
	}

	executed, fullNote, prover, err := s.executeLocked(recipientID, asset, noteType, mode)
	if err != nil {
		return SignedPayment{}, err
	}

	// Proving is CPU-bound and uninterruptible; it runs with the client
	// lock released.
	proven, err := prover.Prove(executed)
	if err != nil {
		return SignedPayment{}, SigningError{Stage: "prove", Err: err}
	}

	payment := SignedPayment{
		ProvenTransaction: hex.EncodeToString(proven.ToBytes()),
		TransactionID:     proven.ID().Hex(),
		TransactionInputs: hex.EncodeToString(executed.Inputs.ToBytes()),
	}
	if mode == x402.PrivacyModeTrustedFacilitator {
		payment.NoteData = hex.EncodeToString(fullNote.ToBytes())
	}
	return payment, nil
}

// executeLocked holds the client mutex for the short in-memory section:
// note construction, VM execution, full-note capture, and prover handle
// extraction. The returned prover is a detached value, safe to use after
// the lock is released.
func (s *TransactionSigner) executeLocked(recipient protocol.AccountID, asset protocol.FungibleAsset, noteType protocol.NoteType, mode x402.PrivacyMode) (protocol.ExecutedTransaction, protocol.Note, protocol.LocalProver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zeroNote protocol.Note

	serialNum, err := s.client.RandomSerialNumber()
	if err != nil {
		return protocol.ExecutedTransaction{}, zeroNote, protocol.LocalProver{}, SigningError{Stage: "execute", Err: err}
	}

	note, err := protocol.NewP2IDNote(s.client.AccountID(), recipient, asset, noteType, serialNum)
	if err != nil {
		return protocol.ExecutedTransaction{}, zeroNote, protocol.LocalProver{}, SigningError{Stage: "execute", Err: err}
	}

	executed, err := s.client.ExecuteTransaction(protocol.TransactionRequest{OutputNotes: []protocol.Note{note}})
	if err != nil {
		return protocol.ExecutedTransaction{}, zeroNote, protocol.LocalProver{}, SigningError{Stage: "execute", Err: err}
	}

	var fullNote protocol.Note
	if mode == x402.PrivacyModeTrustedFacilitator {
		captured := false
		for _, output := range executed.OutputNotes {
			if full, ok := output.Full(); ok {
				fullNote = full
				captured = true
				break
			}
		}
		if !captured {
			return protocol.ExecutedTransaction{}, zeroNote, protocol.LocalProver{}, SigningError{
				Stage: "capture",
				Err:   errors.New("execution result has no full output note to share off-chain"),
			}
		}
	}

	return executed, fullNote, s.client.Prover(), nil
}
