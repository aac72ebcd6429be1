package chain

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"

	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
)

const secp256k1Flag byte = 0x01

// intent prefix for TransactionData: scope 0, version 0, app id 0.
var transactionIntent = []byte{0, 0, 0}

// Secp256k1Signer signs with a secp256k1 key under the ledger's
// flag-prefixed signature scheme.
type Secp256k1Signer struct {
	priv    *ecdsa.PrivateKey
	pub     []byte
	address string
}

func NewSecp256k1Signer(priv *ecdsa.PrivateKey) *Secp256k1Signer {
	pub := crypto.CompressPubkey(&priv.PublicKey)
	sum := blake2b.Sum256(append([]byte{secp256k1Flag}, pub...))
	return &Secp256k1Signer{
		priv:    priv,
		pub:     pub,
		address: "0x" + hex.EncodeToString(sum[:]),
	}
}

func (s *Secp256k1Signer) Address() string {
	return s.address
}

func (s *Secp256k1Signer) PublicKey() []byte {
	return append([]byte(nil), s.pub...)
}

// SignTransaction signs sha256(blake2b256(intent || txBytes)) and returns
// base64(flag || r || s || compressed pubkey).
func (s *Secp256k1Signer) SignTransaction(txBytes []byte) (string, error) {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	digest := blake2b.Sum256(msg)
	hash := sha256.Sum256(digest[:])

	sig, err := crypto.Sign(hash[:], s.priv)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SignerErr, "Sign", err)
	}

	out := make([]byte, 0, 1+64+len(s.pub))
	out = append(out, secp256k1Flag)
	out = append(out, sig[:64]...)
	out = append(out, s.pub...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// VerifyTransaction checks a signature produced by SignTransaction.
func VerifyTransaction(txBytes []byte, serialized string) bool {
	raw, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil || len(raw) != 1+64+33 || raw[0] != secp256k1Flag {
		return false
	}
	msg := append(append([]byte{}, transactionIntent...), txBytes...)
	digest := blake2b.Sum256(msg)
	hash := sha256.Sum256(digest[:])
	return crypto.VerifySignature(raw[65:], hash[:], raw[1:65])
}
