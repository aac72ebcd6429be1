package utils

import (
	"fmt"
	"math/big"
)

// 1 SUI = 10^9 MIST
const mistPerSUI = 1e9

func MistToSUI(mist *big.Int) string {
	f := new(big.Float).SetInt(mist)
	f.Quo(f, big.NewFloat(mistPerSUI))
	return f.Text('f', 9) // 9 位小数
}

// SUIToMist parses a decimal SUI amount; digits past 9 decimals are truncated.
func SUIToMist(sui string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(sui)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", sui)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %s", sui)
	}
	r.Mul(r, new(big.Rat).SetInt64(mistPerSUI))
	return new(big.Int).Quo(r.Num(), r.Denom()), nil
}
