package cmd

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linlinbupt123-crypto/nft_vault/domain"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestKeygen(t *testing.T) {
	out := run(t, "", "keygen")
	assert.Regexp(t, `(?m)^mnemonic: (\w+ ){23}\w+$`, out)
	assert.Regexp(t, `(?m)^address:  0x[0-9a-f]{64}$`, out)
}

func TestSealRoundTrip(t *testing.T) {
	t.Setenv("SIGNER_PASSPHRASE", "correct horse")
	out := run(t, "  "+testMnemonic+"  \n", "seal")

	enc := regexp.MustCompile(`mnemonic_encrypted: "([0-9a-f]+)"`).FindStringSubmatch(out)
	salt := regexp.MustCompile(`salt_hex: "([^"]+)"`).FindStringSubmatch(out)
	require.Len(t, enc, 2)
	require.Len(t, salt, 2)

	kr := domain.NewKeyring()
	got, err := kr.Open(&entity.SealedMnemonic{MnemonicEncrypted: enc[1], SaltHex: salt[1]}, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, got)

	signer, err := kr.DeriveSigner(testMnemonic, "")
	require.NoError(t, err)
	assert.Contains(t, out, "# address "+signer.Address())
}

func TestSealRequiresPassphrase(t *testing.T) {
	t.Setenv("SIGNER_PASSPHRASE", "")
	rootCmd.SetIn(strings.NewReader(testMnemonic + "\n"))
	rootCmd.SetArgs([]string{"seal"})
	assert.Error(t, rootCmd.Execute())
}
