package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
)

const vaultType = "0xabc::vault::Vault"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		obj  *chain.ObjectData
		want Classification
	}{
		{"vault", object(vaultType, map[string]any{"name": "v"}, nil), NotAsset},
		{"vault long address", object("0x0000000000000000000000000000000000000000000000000000000000000abc::vault::Vault", nil, nil), NotAsset},
		{"coin", object("0x2::coin::Coin<0x2::sui::SUI>", map[string]any{"name": "c"}, nil), NotAsset},
		{"display", object("0x9::art::Piece", map[string]any{"name": "p"}, nil), AssetByDisplay},
		{"lowercase hint", object("0x9::my_nft::Piece", nil, nil), AssetByTypeHint},
		{"uppercase hint", object("0x9::art::NFT", nil, nil), AssetByTypeHint},
		{"mixed case is missed", object("0x9::art::Nft", nil, nil), NotAsset},
		{"plain object", object("0x9::game::Sword", nil, map[string]any{"name": "s"}), NotAsset},
		{"nil", nil, NotAsset},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.obj, vaultType))
		})
	}
}

func TestIsCandidate(t *testing.T) {
	assert.True(t, IsCandidate(object("0x9::game::Sword", nil, nil), vaultType))
	assert.False(t, IsCandidate(object(vaultType, nil, nil), vaultType))
	assert.True(t, AssetByTypeHint.IsAsset())
	assert.False(t, NotAsset.IsAsset())
}
