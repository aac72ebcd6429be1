package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const AddressLength = 32

// NormalizeAddress renders an address or object id as 0x + 64 lowercase hex.
func NormalizeAddress(addr string) (string, error) {
	b, err := AddressBytes(addr)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

// AddressBytes left-pads short hex addresses ("0x2") to 32 bytes.
func AddressBytes(addr string) ([]byte, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(addr), "0x"), "0X")
	if h == "" || len(h) > AddressLength*2 {
		return nil, fmt.Errorf("invalid address %q", addr)
	}
	h = strings.Repeat("0", AddressLength*2-len(h)) + h
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return b, nil
}

// SameAddress compares two addresses after normalisation.
func SameAddress(a, b string) bool {
	na, err := NormalizeAddress(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeAddress(b)
	if err != nil {
		return false
	}
	return na == nb
}

// ParseDerivationPath accepts "m/54'/784'/0'/0/0" or "54'/784'/0'/0/0".
func ParseDerivationPath(path string) ([]uint32, error) {
	p := strings.TrimSpace(path)
	if strings.HasPrefix(p, "m/") || strings.HasPrefix(p, "M/") {
		p = p[2:]
	}
	if p == "" {
		return nil, errors.New("empty derivation path")
	}
	parts := strings.Split(p, "/")
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, errors.New("invalid path segment")
		}
		hardened := strings.HasSuffix(part, "'")
		if hardened {
			part = strings.TrimSuffix(part, "'")
		}
		v, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errors.New("invalid derivation index")
		}
		idx := uint32(v)
		if hardened {
			idx += hdkeychain.HardenedKeyStart
		}
		indices = append(indices, idx)
	}
	return indices, nil
}
