package miden

import (
	"context"

	"midenpay/internal/protocol"
)

// HealthStatus reports the facilitator's view of its upstream node.
type HealthStatus struct {
	Network  string `json:"network"`
	ChainTip uint32 `json:"chainTip"`
	FaucetID string `json:"faucetId"`
}

// CheckHealth probes the node and validates the advertised faucet id.
// A failure means the facilitator cannot currently settle payments.
func CheckHealth(ctx context.Context, provider *Provider, faucetHex string) (HealthStatus, error) {
	if _, err := protocol.AccountIDFromHex(faucetHex); err != nil {
		return HealthStatus{}, err
	}
	tip, err := provider.BlockHeight(ctx)
	if err != nil {
		return HealthStatus{}, err
	}
	return HealthStatus{
		Network:  provider.ChainID(),
		ChainTip: tip,
		FaucetID: faucetHex,
	}, nil
}
