package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateShortPassesThrough(t *testing.T) {
	for _, s := range []string{"a", "0xabc::mod::Thing", strings.Repeat("x", TruncateMax)} {
		out, ok := Truncate(s)
		assert.True(t, ok)
		assert.Equal(t, s, out)
	}
}

func TestTruncateLong(t *testing.T) {
	in := "0x1234567890abcdef1234567890abcdef::nft::Collectible"
	out, ok := Truncate(in)

	assert.True(t, ok)
	assert.Equal(t, "0x12345678...:Collectible", out)
	assert.Len(t, out, truncatePrefix+3+truncateSuffix)
}

func TestTruncateAbsent(t *testing.T) {
	for _, s := range []string{"", "undefined"} {
		out, ok := Truncate(s)
		assert.False(t, ok)
		assert.Empty(t, out)
	}
}
