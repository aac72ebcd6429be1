package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionBuilder(t *testing.T) {
	tx := NewTransaction("0x1")
	a := tx.Object("0xabc")
	b := tx.Object("0xabc")
	assert.Equal(t, a, b)
	assert.Len(t, tx.Inputs, 1)

	n := tx.PureU64(258)
	in, ok := tx.Input(n)
	require.True(t, ok)
	assert.False(t, in.IsObject())
	v, err := DecodeU64(in.Pure)
	require.NoError(t, err)
	assert.Equal(t, uint64(258), v)

	res := tx.MoveCall("0x5::vault::unhide_nft", []string{"0x9::a::B"}, a, n)
	assert.Equal(t, Argument{Kind: ArgResult, Index: 0}, res)
	assert.Equal(t, "0x5::vault::unhide_nft", tx.Commands[0].MoveCall.Target())

	_, ok = tx.Input(res)
	assert.False(t, ok)
	assert.NoError(t, tx.Err())

	tx.SetGasBudget(42)
	assert.Equal(t, uint64(42), tx.GasBudget)
}

func TestTransactionBuilderRecordsFirstError(t *testing.T) {
	tx := NewTransaction("0x1")
	tx.PureAddress("zz")
	tx.MoveCall("bad", nil)
	assert.ErrorContains(t, tx.Err(), "invalid address")

	_, err := DecodeU64([]byte{1, 2})
	assert.Error(t, err)
}
