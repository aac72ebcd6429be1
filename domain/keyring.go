package domain

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	bip39 "github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/utils"
)

// NOTE:
// - KDF metadata is encoded into SaltHex as: "pbkdf2$<iterations>$<hexsalt>".
// - AES-256-GCM for the mnemonic, PBKDF2-SHA256 with 310_000 iterations.
// - The BIP39 passphrase (the optional mnemonic extension) is always empty.

const (
	kdfLabel      = "pbkdf2"
	kdfIterations = 310_000
)

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func deriveKey(passphrase string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, 32, sha256.New)
}

// encrypt returns nonce|ciphertext.
func encrypt(data []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, data, nil), nil
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	plain, err := gcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, errors.New("failed to decrypt data")
	}
	return plain, nil
}

func encodeSaltMeta(salt []byte, iterations int) string {
	return fmt.Sprintf("%s$%d$%s", kdfLabel, iterations, hex.EncodeToString(salt))
}

func decodeSaltMeta(meta string) ([]byte, int, error) {
	parts := strings.Split(meta, "$")
	if len(parts) != 3 {
		return nil, 0, errors.New("invalid salt metadata format")
	}
	if parts[0] != kdfLabel {
		return nil, 0, errors.New("unsupported kdf")
	}
	iter, err := strconv.Atoi(parts[1])
	if err != nil || iter <= 0 {
		return nil, 0, errors.New("invalid kdf iterations")
	}
	salt, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, 0, errors.New("invalid salt hex")
	}
	return salt, iter, nil
}

// Keyring seals mnemonics and derives signing keys from them.
type Keyring struct {
	iterations int
}

func NewKeyring() *Keyring {
	return &Keyring{iterations: kdfIterations}
}

// NewMnemonic generates a 24 word mnemonic.
func (k *Keyring) NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

func (k *Keyring) Seal(mnemonic, passphrase string) (*entity.SealedMnemonic, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, wrapErrors.New(wrapErrors.InvalidArgument, "seal", "invalid mnemonic")
	}
	if passphrase == "" {
		return nil, wrapErrors.New(wrapErrors.InvalidArgument, "seal", "empty passphrase")
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	key := deriveKey(passphrase, salt, k.iterations)
	defer clearBytes(key)

	plain := []byte(mnemonic)
	enc, err := encrypt(plain, key)
	clearBytes(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt mnemonic: %w", err)
	}
	return &entity.SealedMnemonic{
		MnemonicEncrypted: hex.EncodeToString(enc),
		SaltHex:           encodeSaltMeta(salt, k.iterations),
	}, nil
}

func (k *Keyring) Open(sealed *entity.SealedMnemonic, passphrase string) (string, error) {
	salt, iterations, err := decodeSaltMeta(sealed.SaltHex)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SignerErr, "open", err)
	}
	ct, err := hex.DecodeString(sealed.MnemonicEncrypted)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SignerErr, "open", err)
	}
	key := deriveKey(passphrase, salt, iterations)
	defer clearBytes(key)

	plain, err := decrypt(ct, key)
	if err != nil {
		return "", wrapErrors.New(wrapErrors.SignerErr, "open", "incorrect passphrase or corrupted data")
	}
	defer clearBytes(plain)
	return string(plain), nil
}

// DeriveSigner derives the secp256k1 key at path from the mnemonic's seed.
func (k *Keyring) DeriveSigner(mnemonic, path string) (*chain.Secp256k1Signer, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "seed", err)
	}
	defer clearBytes(seed)

	if path == "" {
		path = utils.SUI_SECP256K1_DERIVATION_PATH
	}
	indices, err := chain.ParseDerivationPath(path)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "derivation path", err)
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "master key", err)
	}
	for _, idx := range indices {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "derive child key", err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "private key", err)
	}
	privBytes := priv.Serialize()
	ecdsaKey, err := crypto.ToECDSA(privBytes)
	clearBytes(privBytes)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.SignerErr, "to ecdsa", err)
	}
	return chain.NewSecp256k1Signer(ecdsaKey), nil
}

// SignerFromConfig opens the configured sealed mnemonic. It returns nil
// without error when no signer is configured.
func (k *Keyring) SignerFromConfig(cfg config.SignerConfig) (*chain.Secp256k1Signer, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	if cfg.Passphrase == "" {
		return nil, wrapErrors.New(wrapErrors.SignerErr, "signer", "SIGNER_PASSPHRASE is not set")
	}
	mnemonic, err := k.Open(&entity.SealedMnemonic{
		MnemonicEncrypted: cfg.MnemonicEncrypted,
		SaltHex:           cfg.SaltHex,
	}, cfg.Passphrase)
	if err != nil {
		return nil, err
	}
	return k.DeriveSigner(mnemonic, cfg.DerivationPath)
}
