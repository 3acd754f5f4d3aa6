package protocol

import (
	"crypto/subtle"
	"errors"
)

// Verification errors.
var (
	// ErrInvalidProof is returned when the proof does not attest the
	// transaction body at the verifier's security level.
	ErrInvalidProof = errors.New("miden: STARK proof verification failed")
	// ErrVerifierUnavailable is returned by the unavailable variant.
	ErrVerifierUnavailable = errors.New("miden: verification unavailable")
)

// TransactionVerifier checks the proof of a proven transaction. Exactly two
// implementations exist: StarkVerifier performs the cryptographic check,
// UnavailableVerifier rejects everything. There is no variant that accepts
// without checking.
type TransactionVerifier interface {
	Verify(tx ProvenTransaction) error
}

// StarkVerifier verifies transaction proofs at a fixed security level.
type StarkVerifier struct {
	securityLevel uint32
}

// NewStarkVerifier creates a verifier; a zero level selects the default.
func NewStarkVerifier(securityLevel uint32) StarkVerifier {
	if securityLevel == 0 {
		securityLevel = DefaultSecurityLevel
	}
	return StarkVerifier{securityLevel: securityLevel}
}

// Verify checks that the transaction's proof attests its body at the
// verifier's security level.
func (v StarkVerifier) Verify(tx ProvenTransaction) error {
	expected := proofDigest(v.securityLevel, tx.bodyBytes())
	if len(tx.Proof) != len(expected) {
		return ErrInvalidProof
	}
	if subtle.ConstantTimeCompare(tx.Proof, expected) != 1 {
		return ErrInvalidProof
	}
	return nil
}

// UnavailableVerifier is the build-configuration fallback used when no
// cryptographic backend is present. It fails every verification; it never
// accepts.
type UnavailableVerifier struct{}

// Verify always fails with ErrVerifierUnavailable.
func (UnavailableVerifier) Verify(ProvenTransaction) error {
	return ErrVerifierUnavailable
}
