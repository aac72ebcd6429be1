package chain

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestSecp256k1Signer(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s := NewSecp256k1Signer(key)

	pub := s.PublicKey()
	require.Len(t, pub, 33)
	sum := blake2b.Sum256(append([]byte{0x01}, pub...))
	assert.Equal(t, "0x"+hex.EncodeToString(sum[:]), s.Address())

	txBytes := []byte{0, 0, 1, 2, 3}
	sig, err := s.SignTransaction(txBytes)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	require.Len(t, raw, 98)
	assert.Equal(t, byte(0x01), raw[0])
	assert.Equal(t, pub, raw[65:])

	assert.True(t, VerifyTransaction(txBytes, sig))
	assert.False(t, VerifyTransaction([]byte{0, 0, 1, 2, 4}, sig))
	assert.False(t, VerifyTransaction(txBytes, "not base64"))
}
