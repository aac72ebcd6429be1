package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3*time.Second, cfg.Reconcile.Delay)
	assert.Equal(t, uint64(10_000_000), cfg.GasBudget)
	assert.Equal(t, "hide_nft", cfg.Contract.DepositFunction)
	assert.Equal(t, 8, cfg.Resolver.Concurrency)
	assert.False(t, cfg.Signer.Configured())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
contract:
  package_id: "0xabc"
reconcile:
  delay: 2s
server:
  port: "9090"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0xabc::vault::Vault", cfg.Contract.VaultType())
	assert.Equal(t, "0xabc::vault::unhide_nft", cfg.Contract.Target(cfg.Contract.WithdrawFunction))
	assert.Equal(t, 2*time.Second, cfg.Reconcile.Delay)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SIGNER_PASSPHRASE", "hunter2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "hunter2", cfg.Signer.Passphrase)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
