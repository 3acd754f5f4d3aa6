package miden

import (
	"strconv"

	"midenpay/internal/protocol"
	"midenpay/internal/x402"
)

// defaultMaxTimeoutSeconds is how long a price tag stays satisfiable.
const defaultMaxTimeoutSeconds = 300

// PriceTag builds the payment requirements for a resource priced at the
// given token amount payable to payTo. Pure; the only failure mode is an
// impossible input, which the type system already excludes.
func PriceTag(payTo protocol.AccountID, amount TokenAmount) x402.PaymentRequirements {
	return x402.PaymentRequirements{
		Scheme:            x402.SchemeExact,
		Network:           amount.Token.ChainReference.ChainID(),
		PayTo:             payTo.Hex(),
		Asset:             amount.Token.Faucet.Hex(),
		Amount:            strconv.FormatUint(amount.Amount, 10),
		MaxTimeoutSeconds: defaultMaxTimeoutSeconds,
		Extra:             nil,
	}
}
