package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AccountIDLength is the byte length of an account identifier.
const AccountIDLength = 15

// Account type bits carried in the low bits of the prefix element.
const (
	accountTypeMask           = 0b11
	accountTypeRegular        = 0b00
	accountTypeFungibleFaucet = 0b10
)

var (
	// ErrInvalidAccountID is returned for malformed account id text or bytes.
	ErrInvalidAccountID = errors.New("miden: invalid account id")
)

// AccountID is the rollup's 120-bit account identifier. The canonical
// textual form is "0x" followed by exactly 30 lowercase hex digits.
type AccountID struct {
	bytes [AccountIDLength]byte
}

// AccountIDFromHex parses the canonical textual form. Uppercase hex, a
// missing 0x prefix, or any length other than 30 digits is rejected.
func AccountIDFromHex(s string) (AccountID, error) {
	if !strings.HasPrefix(s, "0x") {
		return AccountID{}, fmt.Errorf("%w: %q missing 0x prefix", ErrInvalidAccountID, s)
	}
	digits := s[2:]
	if len(digits) != 2*AccountIDLength {
		return AccountID{}, fmt.Errorf("%w: %q must have %d hex digits", ErrInvalidAccountID, s, 2*AccountIDLength)
	}
	if strings.ToLower(digits) != digits {
		return AccountID{}, fmt.Errorf("%w: %q must be lowercase", ErrInvalidAccountID, s)
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return AccountID{}, fmt.Errorf("%w: %q: %v", ErrInvalidAccountID, s, err)
	}
	var id AccountID
	copy(id.bytes[:], raw)
	return id, nil
}

// AccountIDFromBytes constructs an account id from its 15 raw bytes.
func AccountIDFromBytes(raw []byte) (AccountID, error) {
	if len(raw) != AccountIDLength {
		return AccountID{}, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidAccountID, AccountIDLength, len(raw))
	}
	var id AccountID
	copy(id.bytes[:], raw)
	return id, nil
}

// Hex returns the canonical textual form: 0x + 30 lowercase hex digits.
func (id AccountID) Hex() string {
	return "0x" + hex.EncodeToString(id.bytes[:])
}

// String implements fmt.Stringer.
func (id AccountID) String() string { return id.Hex() }

// Bytes returns the 15 raw bytes.
func (id AccountID) Bytes() []byte {
	out := make([]byte, AccountIDLength)
	copy(out, id.bytes[:])
	return out
}

// Prefix returns the first element of the id: the leading 8 bytes.
func (id AccountID) Prefix() Felt {
	return Felt(readU64(id.bytes[:8]))
}

// Suffix returns the second element of the id: the trailing 7 bytes,
// zero-extended into a field element.
func (id AccountID) Suffix() Felt {
	var padded [8]byte
	copy(padded[:], id.bytes[8:])
	return Felt(readU64(padded[:]))
}

// Elements returns the id as its [prefix, suffix] field-element pair.
func (id AccountID) Elements() [2]Felt {
	return [2]Felt{id.Prefix(), id.Suffix()}
}

// AccountIDFromElements is the inverse of Elements. The suffix element must
// fit in 7 bytes.
func AccountIDFromElements(elements [2]Felt) (AccountID, error) {
	if uint64(elements[1])>>56 != 0 {
		return AccountID{}, fmt.Errorf("%w: suffix element overflows 7 bytes", ErrInvalidAccountID)
	}
	var id AccountID
	var prefix, suffix [8]byte
	copy(prefix[:], appendU64(nil, uint64(elements[0])))
	copy(suffix[:], appendU64(nil, uint64(elements[1])))
	copy(id.bytes[:8], prefix[:])
	copy(id.bytes[8:], suffix[:7])
	return id, nil
}

// IsFaucet reports whether the id's type bits mark a fungible faucet account.
func (id AccountID) IsFaucet() bool {
	return uint64(id.Prefix())&accountTypeMask == accountTypeFungibleFaucet
}

func (id AccountID) write(w *writer) {
	w.bytes(id.bytes[:])
}

func readAccountID(r *reader) AccountID {
	var id AccountID
	b := r.take(AccountIDLength)
	if b != nil {
		copy(id.bytes[:], b)
	}
	return id
}
