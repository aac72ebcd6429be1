package entity

// SealedMnemonic is a mnemonic encrypted under a passphrase-derived key.
// SaltHex carries KDF metadata as "pbkdf2$<iterations>$<hexsalt>".
type SealedMnemonic struct {
	MnemonicEncrypted string `json:"mnemonic_encrypted" mapstructure:"mnemonic_encrypted"`
	SaltHex           string `json:"salt_hex" mapstructure:"salt_hex"`
}
