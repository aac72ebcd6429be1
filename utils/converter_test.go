package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMistToSUI(t *testing.T) {
	assert.Equal(t, "0.010000000", MistToSUI(big.NewInt(10_000_000)))
	assert.Equal(t, "1.500000000", MistToSUI(big.NewInt(1_500_000_000)))
}

func TestSUIToMist(t *testing.T) {
	mist, err := SUIToMist("0.01")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), mist.Int64())

	_, err = SUIToMist("abc")
	assert.Error(t, err)
	_, err = SUIToMist("-1")
	assert.Error(t, err)
}
