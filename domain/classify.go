package domain

import (
	"strings"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
)

type Classification int

const (
	NotAsset Classification = iota
	// AssetByDisplay: the object carries display metadata.
	AssetByDisplay
	// AssetByTypeHint is degraded mode: no display metadata, accepted only
	// because the type name mentions an asset token.
	AssetByTypeHint
)

func (c Classification) IsAsset() bool {
	return c != NotAsset
}

var assetTypeHints = []string{"nft", "NFT"}

const coinTypeMarker = "::coin::Coin<"

// IsCandidate excludes the owner's vault and fungible coins.
func IsCandidate(obj *chain.ObjectData, vaultType string) bool {
	if obj == nil {
		return false
	}
	if sameStructType(obj.Type, vaultType) {
		return false
	}
	return !strings.Contains(obj.Type, coinTypeMarker)
}

// Classify decides whether a directly owned object is shown as an asset.
// Assets lacking both display metadata and a type hint are missed.
func Classify(obj *chain.ObjectData, vaultType string) Classification {
	if !IsCandidate(obj, vaultType) {
		return NotAsset
	}
	if len(obj.DisplayData()) > 0 {
		return AssetByDisplay
	}
	for _, hint := range assetTypeHints {
		if strings.Contains(obj.Type, hint) {
			return AssetByTypeHint
		}
	}
	return NotAsset
}

// sameStructType compares struct types with addresses normalised, so
// "0x2::a::B" matches its long form.
func sameStructType(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	ta, err := chain.ParseTypeTag(a)
	if err != nil || ta.Struct == nil {
		return false
	}
	tb, err := chain.ParseTypeTag(b)
	if err != nil || tb.Struct == nil {
		return false
	}
	return chain.SameAddress(ta.Struct.Address, tb.Struct.Address) &&
		ta.Struct.Module == tb.Struct.Module &&
		ta.Struct.Name == tb.Struct.Name
}
