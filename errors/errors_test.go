package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapWithCodeNil(t *testing.T) {
	assert.NoError(t, WrapWithCode(LedgerUnavailable, "getObject", nil))
}

func TestCodeOfAndIs(t *testing.T) {
	inner := WrapWithCode(TypeResolution, "getObject", stderrors.New("no type"))
	outer := fmt.Errorf("deposit: %w", inner)

	assert.Equal(t, TypeResolution, CodeOf(outer))
	assert.True(t, Is(outer, TypeResolution))
	assert.False(t, Is(outer, LedgerUnavailable))
	assert.Equal(t, Unknown, CodeOf(stderrors.New("plain")))
}

func TestIsWalksNestedAppErrors(t *testing.T) {
	err := WrapWithCode(LedgerUnavailable, "submit", New(SignerErr, "sign", "bad key"))

	assert.Equal(t, LedgerUnavailable, CodeOf(err))
	assert.True(t, Is(err, SignerErr))
}

func TestMessage(t *testing.T) {
	err := WrapWithCode(LedgerUnavailable, "submit", New(SignerErr, "sign", "bad key"))

	assert.Equal(t, "bad key", Message(err))
	assert.Equal(t, "[SIGNER_ERROR] sign: bad key", New(SignerErr, "sign", "bad key").Error())
	assert.Empty(t, Message(nil))
}
