package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountIDFromHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "0xaabbccddeeff00112233aabbccddee", false},
		{"valid digits", "0x0b50cc0489f8f1101e946691aa89ca", false},
		{"missing prefix", "aabbccddeeff00112233aabbccddee", true},
		{"too short", "0xaabbccddeeff00112233aabbccdd", true},
		{"too long", "0xaabbccddeeff00112233aabbccddee00", true},
		{"uppercase", "0xAABBCCDDEEFF00112233AABBCCDDEE", true},
		{"non-hex", "0xzzbbccddeeff00112233aabbccddee", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := AccountIDFromHex(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.Hex(), "hex form must round-trip")
		})
	}
}

func TestAccountIDHexIsCanonical(t *testing.T) {
	raw := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x00, 0x11, 0x22, 0x33, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE}
	id, err := AccountIDFromBytes(raw)
	require.NoError(t, err)

	assert.Equal(t, "0xaabbccddeeff00112233aabbccddee", id.Hex())
}

func TestAccountIDElementsRoundTrip(t *testing.T) {
	ids := []string{
		"0xaabbccddeeff00112233aabbccddee",
		"0x0b50cc0489f8f1101e946691aa89ca",
		"0x37d5977a8e16d8205a360820f0230f",
		"0x000000000000000000000000000000",
	}
	for _, hexID := range ids {
		id, err := AccountIDFromHex(hexID)
		require.NoError(t, err)

		recovered, err := AccountIDFromElements(id.Elements())
		require.NoError(t, err)
		assert.Equal(t, id, recovered)
	}
}

func TestAccountIDFromElementsOverflow(t *testing.T) {
	// The suffix element only has 7 bytes of room.
	_, err := AccountIDFromElements([2]Felt{0, Felt(1) << 56})
	assert.Error(t, err)
}

func TestAccountIDFromBytesLength(t *testing.T) {
	_, err := AccountIDFromBytes(make([]byte, 14))
	assert.Error(t, err)

	_, err = AccountIDFromBytes(make([]byte, 16))
	assert.Error(t, err)
}
