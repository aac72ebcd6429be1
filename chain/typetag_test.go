package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeTag(t *testing.T) {
	tag, err := ParseTypeTag("0x2::coin::Coin<0x2::sui::SUI>")
	require.NoError(t, err)
	require.Equal(t, TagStruct, tag.Kind)
	assert.Equal(t, "0x2", tag.Struct.Address)
	assert.Equal(t, "coin", tag.Struct.Module)
	assert.Equal(t, "Coin", tag.Struct.Name)
	require.Len(t, tag.Struct.TypeParams, 1)
	assert.Equal(t, "SUI", tag.Struct.TypeParams[0].Struct.Name)

	tag, err = ParseTypeTag("vector<vector<u8>>")
	require.NoError(t, err)
	assert.Equal(t, TagVector, tag.Kind)
	assert.Equal(t, TagVector, tag.Elem.Kind)
	assert.Equal(t, TagU8, tag.Elem.Elem.Kind)

	tag, err = ParseTypeTag("0xabc::pair::Pair<u64, 0x9::art::NFT>")
	require.NoError(t, err)
	require.Len(t, tag.Struct.TypeParams, 2)
	assert.Equal(t, TagU64, tag.Struct.TypeParams[0].Kind)
	assert.Equal(t, "NFT", tag.Struct.TypeParams[1].Struct.Name)
}

func TestParseTypeTagErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"0x2::coin",
		"0x2::coin::Coin<",
		"0x2::coin::Coin<u8",
		"vector<u8",
		"0x2::a::B>",
		"0x2::a::B<u8;u8>",
	} {
		_, err := ParseTypeTag(s)
		assert.Error(t, err, s)
	}
}
