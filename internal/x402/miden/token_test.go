package miden

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	usdc := TestnetUSDC()

	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr bool
	}{
		{"whole", "10", 10_000_000, false},
		{"fraction", "1.5", 1_500_000, false},
		{"full precision", "0.000001", 1, false},
		{"zero", "0", 0, false},
		{"leading dot", ".5", 500_000, false},
		{"padded fraction", "2.10", 2_100_000, false},

		{"too many fraction digits", "0.0000001", 0, true},
		{"negative", "-1", 0, true},
		{"plus sign", "+1", 0, true},
		{"letters", "abc", 0, true},
		{"double dot", "1.5.0", 0, true},
		{"trailing dot", "5.", 0, true},
		{"empty", "", 0, true},
		{"overflow", "18446744073709551616", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := usdc.ParseDecimal(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Amount)
		})
	}
}

func TestParseDecimalZeroDecimals(t *testing.T) {
	token := TestnetUSDC()
	token.Decimals = 0

	got, err := token.ParseDecimal("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Amount)

	_, err = token.ParseDecimal("4.2")
	assert.Error(t, err, "fractions must be rejected at zero decimals")
}

func TestFormatDecimalRoundTrip(t *testing.T) {
	usdc := TestnetUSDC()
	for _, amount := range []uint64{0, 1, 999_999, 1_000_000, 1_500_000, 123_456_789} {
		formatted := usdc.Amount(amount).FormatDecimal()
		parsed, err := usdc.ParseDecimal(formatted)
		require.NoError(t, err, "ParseDecimal(%q)", formatted)
		assert.Equal(t, amount, parsed.Amount, "round-trip through %q", formatted)
	}
}

func TestParseAmountString(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"1000000", 1_000_000, false},
		{"0", 0, false},
		{"18446744073709551615", 1<<64 - 1, false},
		{"18446744073709551616", 0, true},
		{"-1", 0, true},
		{"1.5", 0, true},
		{"", 0, true},
		{" 100", 0, true},
		{"1e6", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmountString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTestnetUSDC(t *testing.T) {
	usdc := TestnetUSDC()
	assert.Equal(t, Testnet, usdc.ChainReference)
	assert.Equal(t, uint8(6), usdc.Decimals)
	assert.Equal(t, "0x37d5977a8e16d8205a360820f0230f", usdc.Faucet.Hex())
}

func TestDeploymentFromConfig(t *testing.T) {
	_, err := DeploymentFromConfig(Mainnet, "0x37d5977a8e16d8205a360820f0230f", 6)
	assert.NoError(t, err)

	_, err = DeploymentFromConfig(Mainnet, "not-hex", 6)
	assert.Error(t, err)
}
