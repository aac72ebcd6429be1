package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/linlinbupt123-crypto/nft_vault/utils"
)

type Config struct {
	Ledger      LedgerConfig    `mapstructure:"ledger"`
	Contract    ContractConfig  `mapstructure:"contract"`
	GasBudget   uint64          `mapstructure:"gas_budget"`
	BurnAddress string          `mapstructure:"burn_address"`
	Reconcile   ReconcileConfig `mapstructure:"reconcile"`
	Resolver    ResolverConfig  `mapstructure:"resolver"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Signer      SignerConfig    `mapstructure:"signer"`
	Log         LogConfig       `mapstructure:"log"`
	Server      ServerConfig    `mapstructure:"server"`
}

type LedgerConfig struct {
	RPC                 string        `mapstructure:"rpc"`
	ConfirmPollInterval time.Duration `mapstructure:"confirm_poll_interval"`
	PageSize            int           `mapstructure:"page_size"`
}

// ContractConfig names the vault package entry points.
type ContractConfig struct {
	PackageID        string `mapstructure:"package_id"`
	Module           string `mapstructure:"module"`
	Struct           string `mapstructure:"struct"`
	CreateFunction   string `mapstructure:"create_function"`
	DepositFunction  string `mapstructure:"deposit_function"`
	WithdrawFunction string `mapstructure:"withdraw_function"`
}

// VaultType is the fully qualified struct type of the vault object.
func (c ContractConfig) VaultType() string {
	return c.PackageID + "::" + c.Module + "::" + c.Struct
}

func (c ContractConfig) Target(function string) string {
	return c.PackageID + "::" + c.Module + "::" + function
}

type ReconcileConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type ResolverConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SignerConfig holds the sealed mnemonic. The passphrase only comes from
// the environment (SIGNER_PASSPHRASE).
type SignerConfig struct {
	MnemonicEncrypted string `mapstructure:"mnemonic_encrypted"`
	SaltHex           string `mapstructure:"salt_hex"`
	DerivationPath    string `mapstructure:"derivation_path"`
	Passphrase        string `mapstructure:"passphrase"`
}

func (s SignerConfig) Configured() bool {
	return s.MnemonicEncrypted != "" && s.SaltHex != ""
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.rpc", "https://fullnode.testnet.sui.io:443")
	v.SetDefault("ledger.confirm_poll_interval", 500*time.Millisecond)
	v.SetDefault("ledger.page_size", 50)
	v.SetDefault("contract.module", "vault")
	v.SetDefault("contract.struct", "Vault")
	v.SetDefault("contract.create_function", "create_vault_entry")
	v.SetDefault("contract.deposit_function", "hide_nft")
	v.SetDefault("contract.withdraw_function", "unhide_nft")
	v.SetDefault("gas_budget", utils.DEFAULT_GAS_BUDGET)
	v.SetDefault("burn_address", utils.BURN_ADDRESS)
	v.SetDefault("reconcile.delay", 3*time.Second)
	v.SetDefault("resolver.concurrency", 8)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("signer.derivation_path", utils.SUI_SECP256K1_DERIVATION_PATH)
	v.SetDefault("log.level", "info")
	v.SetDefault("server.port", "8080")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// ENV 覆盖 YAML
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("signer.passphrase", "SIGNER_PASSPHRASE")
	return v
}

func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// Default returns the configuration with no file, defaults plus environment.
func Default() *Config {
	cfg, err := unmarshal(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
