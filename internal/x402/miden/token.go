package miden

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"midenpay/internal/protocol"
)

// Token parsing errors.
var (
	// ErrInvalidAmount is returned for amount strings that are not
	// non-negative decimal numbers within the token's precision.
	ErrInvalidAmount = errors.New("x402 miden: invalid token amount")
	// ErrAmountOverflow is returned when an amount exceeds uint64.
	ErrAmountOverflow = errors.New("x402 miden: token amount overflows u64")
)

// TokenDeployment identifies a fungible token by its issuing faucet on a
// specific chain.
type TokenDeployment struct {
	ChainReference ChainReference
	Faucet         protocol.AccountID
	Decimals       uint8
}

// TokenAmount couples a smallest-unit amount with its token deployment.
type TokenAmount struct {
	Token  TokenDeployment
	Amount uint64
}

// Amount builds a TokenAmount in the token's smallest unit.
func (t TokenDeployment) Amount(smallestUnit uint64) TokenAmount {
	return TokenAmount{Token: t, Amount: smallestUnit}
}

// ParseDecimal parses a human decimal string ("1.5") into a smallest-unit
// amount. More fractional digits than the token's decimals, negative
// values, non-digits, and u64 overflow are rejected.
func (t TokenDeployment) ParseDecimal(s string) (TokenAmount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TokenAmount{}, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && frac == "" {
		return TokenAmount{}, fmt.Errorf("%w: %q has a trailing decimal point", ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(t.Decimals) {
		return TokenAmount{}, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, s, t.Decimals)
	}

	// Right-pad the fraction to the token's precision.
	frac += strings.Repeat("0", int(t.Decimals)-len(frac))

	amount, err := parseUintDigits(whole)
	if err != nil {
		return TokenAmount{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	for i := 0; i < int(t.Decimals); i++ {
		if amount > math.MaxUint64/10 {
			return TokenAmount{}, ErrAmountOverflow
		}
		amount *= 10
	}
	var fracAmount uint64
	if frac != "" {
		fracAmount, err = parseUintDigits(frac)
		if err != nil {
			return TokenAmount{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
		}
	}
	if amount > math.MaxUint64-fracAmount {
		return TokenAmount{}, ErrAmountOverflow
	}
	return TokenAmount{Token: t, Amount: amount + fracAmount}, nil
}

// FormatDecimal renders the amount as a human decimal string.
func (a TokenAmount) FormatDecimal() string {
	if a.Token.Decimals == 0 {
		return fmt.Sprintf("%d", a.Amount)
	}
	divisor := uint64(1)
	for i := uint8(0); i < a.Token.Decimals; i++ {
		divisor *= 10
	}
	whole := a.Amount / divisor
	frac := a.Amount % divisor
	return fmt.Sprintf("%d.%0*d", whole, a.Token.Decimals, frac)
}

// parseUintDigits parses a non-empty all-digit string as uint64, rejecting
// signs, whitespace, and overflow. Stricter than strconv.ParseUint only in
// its error text.
func parseUintDigits(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty digit run")
	}
	var out uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit character %q", r)
		}
		d := uint64(r - '0')
		if out > (math.MaxUint64-d)/10 {
			return 0, ErrAmountOverflow
		}
		out = out*10 + d
	}
	return out, nil
}

// ParseAmountString parses a wire amount: smallest-unit decimal integer.
// Negative, fractional, empty, or overflowing strings are rejected.
func ParseAmountString(s string) (uint64, error) {
	amount, err := parseUintDigits(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return amount, nil
}

// TestnetUSDC returns the testnet USDC-equivalent deployment. The faucet id
// is the well-known testnet deployment.
func TestnetUSDC() TokenDeployment {
	faucet, err := protocol.AccountIDFromHex("0x37d5977a8e16d8205a360820f0230f")
	if err != nil {
		panic(err)
	}
	return TokenDeployment{
		ChainReference: Testnet,
		Faucet:         faucet,
		Decimals:       6,
	}
}

// DeploymentFromConfig builds a token deployment from operator
// configuration. Mainnet faucets are always operator-configured; no
// mainnet deployment is compiled in.
func DeploymentFromConfig(reference ChainReference, faucetHex string, decimals uint8) (TokenDeployment, error) {
	faucet, err := protocol.AccountIDFromHex(faucetHex)
	if err != nil {
		return TokenDeployment{}, err
	}
	return TokenDeployment{
		ChainReference: reference,
		Faucet:         faucet,
		Decimals:       decimals,
	}, nil
}
