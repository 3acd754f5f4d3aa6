package protocol

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

// DefaultSecurityLevel is the standard STARK security level.
const DefaultSecurityLevel uint32 = 96

// ErrNothingToProve is returned when the execution result has no outputs.
var ErrNothingToProve = errors.New("miden: executed transaction has no output notes")

// LocalProver turns an executed transaction into a proven transaction. It is
// a detached value type: a signer extracts one under its client lock and
// invokes Prove outside the lock, since proving is CPU-bound.
type LocalProver struct {
	securityLevel uint32
}

// NewLocalProver creates a prover at the given security level; zero selects
// the default.
func NewLocalProver(securityLevel uint32) LocalProver {
	if securityLevel == 0 {
		securityLevel = DefaultSecurityLevel
	}
	return LocalProver{securityLevel: securityLevel}
}

// SecurityLevel reports the prover's configured security level.
func (p LocalProver) SecurityLevel() uint32 { return p.securityLevel }

// Prove produces a proven transaction from an execution result. Private
// output notes are irreversibly shrunk to their header form: callers that
// need the full private note must capture it from the execution result
// before calling Prove.
func (p LocalProver) Prove(executed ExecutedTransaction) (ProvenTransaction, error) {
	if len(executed.OutputNotes) == 0 {
		return ProvenTransaction{}, ErrNothingToProve
	}

	notes := make([]OutputNote, 0, len(executed.OutputNotes))
	for _, note := range executed.OutputNotes {
		if note.Metadata().Type == NoteTypePrivate {
			notes = append(notes, note.Shrink())
			continue
		}
		notes = append(notes, note)
	}

	tx := ProvenTransaction{
		AccountID:              executed.AccountID,
		InitialStateCommitment: executed.InitialStateCommitment,
		FinalStateCommitment:   executed.FinalStateCommitment,
		ExpirationBlock:        executed.ExpirationBlock,
		OutputNotes:            notes,
	}
	tx.Proof = proofDigest(p.securityLevel, tx.bodyBytes())
	return tx, nil
}

// proofDigest binds a proof to the transaction body at a security level.
func proofDigest(securityLevel uint32, body []byte) []byte {
	h := sha256.New()
	h.Write([]byte("miden.stark"))
	var level [4]byte
	binary.LittleEndian.PutUint32(level[:], securityLevel)
	h.Write(level[:])
	h.Write(body)
	return h.Sum(nil)
}
