// Package miden implements the x402 "exact" payment scheme for the Miden
// ZK rollup: price tag issuance, client-side payment construction and
// proving, and facilitator-side verification and settlement.
//
// Unlike EVM chains that use transferWithAuthorization (ERC-3009) for
// gasless token transfers, Miden uses a note-based model: the client
// creates a P2ID note, executes and proves the transaction locally, and
// the facilitator verifies the STARK proof before relaying the proven
// transaction to the network.
package miden

import (
	"fmt"
	"strings"
)

// Namespace is the CAIP-2 namespace for Miden chains.
const Namespace = "miden"

// ChainReference names a Miden rollup instance.
type ChainReference string

const (
	// Testnet is the Miden testnet reference.
	Testnet ChainReference = "testnet"
	// Mainnet is the Miden mainnet reference.
	Mainnet ChainReference = "mainnet"
)

// ParseChainReference validates a bare reference string.
func ParseChainReference(s string) (ChainReference, error) {
	switch ChainReference(s) {
	case Testnet, Mainnet:
		return ChainReference(s), nil
	default:
		return "", fmt.Errorf("x402 miden: unknown chain reference %q: must be 'testnet' or 'mainnet'", s)
	}
}

// ChainID returns the CAIP-2 chain id: "miden:<reference>".
func (r ChainReference) ChainID() string {
	return Namespace + ":" + string(r)
}

// ParseChainID splits and validates a CAIP-2 chain id in the miden
// namespace.
func ParseChainID(chainID string) (ChainReference, error) {
	namespace, reference, ok := strings.Cut(chainID, ":")
	if !ok {
		return "", fmt.Errorf("x402 miden: chain id %q is not CAIP-2", chainID)
	}
	if namespace != Namespace {
		return "", fmt.Errorf("x402 miden: chain id %q is not in the %q namespace", chainID, Namespace)
	}
	return ParseChainReference(reference)
}
