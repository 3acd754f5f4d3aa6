package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccountID(t *testing.T, hexID string) AccountID {
	t.Helper()
	id, err := AccountIDFromHex(hexID)
	require.NoError(t, err)
	return id
}

func testNote(t *testing.T, noteType NoteType) Note {
	t.Helper()
	sender := testAccountID(t, "0x0b50cc0489f8f1101e946691aa89ca")
	target := testAccountID(t, "0xaabbccddeeff00112233aabbccddee")
	faucet := testAccountID(t, "0x37d5977a8e16d8205a360820f0230f")
	note, err := NewP2IDNote(sender, target, FungibleAsset{Faucet: faucet, Amount: 1_000_000}, noteType, Word{1, 2, 3, 4})
	require.NoError(t, err)
	return note
}

func TestNoteSerializationRoundTrip(t *testing.T) {
	note := testNote(t, NoteTypePublic)

	raw := note.ToBytes()
	recovered, err := NoteFromBytes(raw)
	require.NoError(t, err)

	assert.Equal(t, note.ID(), recovered.ID(), "round-trip must preserve the note id")
	assert.Equal(t, raw, recovered.ToBytes(), "re-serialization must be byte-stable")
}

func TestNoteFromBytesRejectsTrailing(t *testing.T) {
	raw := append(testNote(t, NoteTypePublic).ToBytes(), 0x00)
	_, err := NoteFromBytes(raw)
	assert.Error(t, err)
}

func TestNoteFromBytesRejectsTruncated(t *testing.T) {
	raw := testNote(t, NoteTypePublic).ToBytes()
	_, err := NoteFromBytes(raw[:len(raw)-3])
	assert.Error(t, err)
}

func TestNoteIDDependsOnContents(t *testing.T) {
	base := testNote(t, NoteTypePublic)

	other := base
	other.Recipient.SerialNum = Word{9, 9, 9, 9}
	assert.NotEqual(t, base.ID(), other.ID(), "serial number change must change the note id")

	vault, err := NewAssetVault(FungibleAsset{Faucet: base.Assets.Fungible()[0].Faucet, Amount: 999_999})
	require.NoError(t, err)
	cheaper := base
	cheaper.Assets = vault
	assert.NotEqual(t, base.ID(), cheaper.ID(), "amount change must change the note id")
}

func TestOutputNoteShrinkKeepsID(t *testing.T) {
	note := testNote(t, NoteTypePrivate)
	full := FullOutputNote(note)
	header := full.Shrink()

	assert.Equal(t, full.ID(), header.ID(), "shrinking must preserve the note id")
	_, ok := header.Full()
	assert.False(t, ok, "shrunk output must not expose the full note")
	assert.Equal(t, NoteTypePrivate, header.Metadata().Type)
}

func TestP2IDTargetRecovery(t *testing.T) {
	target := testAccountID(t, "0xaabbccddeeff00112233aabbccddee")
	note := testNote(t, NoteTypePublic)

	recovered, ok := P2IDTarget(note.Recipient.Inputs)
	require.True(t, ok)
	assert.Equal(t, target, recovered)

	// Input word order is [suffix, prefix]; swapping must not recover the
	// same account.
	swapped := []Felt{note.Recipient.Inputs[1], note.Recipient.Inputs[0]}
	if wrong, ok := P2IDTarget(swapped); ok {
		assert.NotEqual(t, target, wrong, "swapped inputs must not recover the target")
	}

	_, ok = P2IDTarget([]Felt{1})
	assert.False(t, ok, "single-input recovery must fail")
}

func TestAssetVaultRejectsDuplicates(t *testing.T) {
	faucet := testAccountID(t, "0x37d5977a8e16d8205a360820f0230f")
	_, err := NewAssetVault(
		FungibleAsset{Faucet: faucet, Amount: 1},
		FungibleAsset{Faucet: faucet, Amount: 2},
	)
	assert.ErrorIs(t, err, ErrDuplicateFaucet)
}

func TestAssetVaultBalanceOf(t *testing.T) {
	faucet := testAccountID(t, "0x37d5977a8e16d8205a360820f0230f")
	other := testAccountID(t, "0x0b50cc0489f8f1101e946691aa89ca")
	vault, err := NewAssetVault(FungibleAsset{Faucet: faucet, Amount: 42})
	require.NoError(t, err)

	assert.Equal(t, uint64(42), vault.BalanceOf(faucet))
	assert.Equal(t, uint64(0), vault.BalanceOf(other), "absent faucet is a zero balance")
}
