package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func fastKeyring() *Keyring {
	return &Keyring{iterations: 1000}
}

func TestSealOpen(t *testing.T) {
	k := fastKeyring()
	sealed, err := k.Seal(testMnemonic, "pw")
	require.NoError(t, err)
	assert.Regexp(t, `^pbkdf2\$1000\$[0-9a-f]{32}$`, sealed.SaltHex)

	got, err := k.Open(sealed, "pw")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, got)

	_, err = k.Open(sealed, "wrong")
	assert.True(t, wrapErrors.Is(err, wrapErrors.SignerErr))
}

func TestSealRejectsBadInput(t *testing.T) {
	k := fastKeyring()
	_, err := k.Seal("not a mnemonic", "pw")
	assert.True(t, wrapErrors.Is(err, wrapErrors.InvalidArgument))

	_, err = k.Seal(testMnemonic, "")
	assert.True(t, wrapErrors.Is(err, wrapErrors.InvalidArgument))
}

func TestNewMnemonic(t *testing.T) {
	m, err := fastKeyring().NewMnemonic()
	require.NoError(t, err)
	assert.Len(t, regexp.MustCompile(`\s+`).Split(m, -1), 24)
}

func TestDeriveSignerDeterministic(t *testing.T) {
	k := fastKeyring()
	a, err := k.DeriveSigner(testMnemonic, "")
	require.NoError(t, err)
	b, err := k.DeriveSigner(testMnemonic, "m/54'/784'/0'/0/0")
	require.NoError(t, err)
	c, err := k.DeriveSigner(testMnemonic, "m/54'/784'/1'/0/0")
	require.NoError(t, err)

	assert.Regexp(t, `^0x[0-9a-f]{64}$`, a.Address())
	assert.Equal(t, a.Address(), b.Address())
	assert.NotEqual(t, a.Address(), c.Address())

	sig, err := a.SignTransaction([]byte("tx-bytes"))
	require.NoError(t, err)
	assert.True(t, chain.VerifyTransaction([]byte("tx-bytes"), sig))
	assert.False(t, chain.VerifyTransaction([]byte("other"), sig))
}

func TestDeriveSignerBadPath(t *testing.T) {
	_, err := fastKeyring().DeriveSigner(testMnemonic, "m/x'")
	assert.True(t, wrapErrors.Is(err, wrapErrors.SignerErr))
}

func TestSignerFromConfig(t *testing.T) {
	k := fastKeyring()
	s, err := k.SignerFromConfig(config.SignerConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	sealed, err := k.Seal(testMnemonic, "pw")
	require.NoError(t, err)
	cfg := config.SignerConfig{MnemonicEncrypted: sealed.MnemonicEncrypted, SaltHex: sealed.SaltHex}

	_, err = k.SignerFromConfig(cfg)
	assert.True(t, wrapErrors.Is(err, wrapErrors.SignerErr))

	cfg.Passphrase = "pw"
	s, err = k.SignerFromConfig(cfg)
	require.NoError(t, err)
	want, err := k.DeriveSigner(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, want.Address(), s.Address())
}
