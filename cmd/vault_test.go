package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linlinbupt123-crypto/nft_vault/config"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
)

func TestApplyGasBudget(t *testing.T) {
	c := config.Default()
	def := c.GasBudget

	require.NoError(t, applyGasBudget(c, ""))
	assert.Equal(t, def, c.GasBudget)

	require.NoError(t, applyGasBudget(c, "0.05"))
	assert.Equal(t, uint64(50_000_000), c.GasBudget)

	for _, bad := range []string{"abc", "-1", "0", "0.0000000001", "1e30"} {
		err := applyGasBudget(c, bad)
		assert.True(t, wrapErrors.Is(err, wrapErrors.InvalidArgument), bad)
	}
	assert.Equal(t, uint64(50_000_000), c.GasBudget)
}
