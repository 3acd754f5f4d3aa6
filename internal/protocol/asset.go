package protocol

import (
	"errors"
	"fmt"
)

// MaxVaultAssets caps the number of assets a note vault may carry.
const MaxVaultAssets = 255

// ErrDuplicateFaucet is returned when a vault would hold two assets from the
// same faucet; amounts must be aggregated instead.
var ErrDuplicateFaucet = errors.New("miden: duplicate faucet in asset vault")

// FungibleAsset is an amount of a faucet-issued fungible token.
type FungibleAsset struct {
	Faucet AccountID
	Amount uint64
}

func (a FungibleAsset) String() string {
	return fmt.Sprintf("%d@%s", a.Amount, a.Faucet)
}

func (a FungibleAsset) write(w *writer) {
	a.Faucet.write(w)
	w.u64(a.Amount)
}

func readFungibleAsset(r *reader) FungibleAsset {
	return FungibleAsset{
		Faucet: readAccountID(r),
		Amount: r.u64(),
	}
}

// AssetVault is the ordered asset collection of a note.
type AssetVault struct {
	assets []FungibleAsset
}

// NewAssetVault builds a vault, rejecting duplicate faucets.
func NewAssetVault(assets ...FungibleAsset) (AssetVault, error) {
	if len(assets) > MaxVaultAssets {
		return AssetVault{}, fmt.Errorf("miden: vault holds %d assets, max %d", len(assets), MaxVaultAssets)
	}
	seen := make(map[AccountID]struct{}, len(assets))
	for _, a := range assets {
		if _, dup := seen[a.Faucet]; dup {
			return AssetVault{}, ErrDuplicateFaucet
		}
		seen[a.Faucet] = struct{}{}
	}
	vault := AssetVault{assets: make([]FungibleAsset, len(assets))}
	copy(vault.assets, assets)
	return vault, nil
}

// Fungible returns the vault's assets in order.
func (v AssetVault) Fungible() []FungibleAsset {
	out := make([]FungibleAsset, len(v.assets))
	copy(out, v.assets)
	return out
}

// BalanceOf returns the amount held for the given faucet, zero if absent.
func (v AssetVault) BalanceOf(faucet AccountID) uint64 {
	for _, a := range v.assets {
		if a.Faucet == faucet {
			return a.Amount
		}
	}
	return 0
}

func (v AssetVault) write(w *writer) {
	w.u8(uint8(len(v.assets)))
	for _, a := range v.assets {
		a.write(w)
	}
}

func readAssetVault(r *reader) AssetVault {
	n := int(r.u8())
	assets := make([]FungibleAsset, 0, n)
	for i := 0; i < n; i++ {
		assets = append(assets, readFungibleAsset(r))
	}
	return AssetVault{assets: assets}
}
