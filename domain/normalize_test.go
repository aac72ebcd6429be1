package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/utils"
)

func object(typ string, display, fields map[string]any) *chain.ObjectData {
	o := &chain.ObjectData{ObjectID: "0xaaa", Type: typ}
	if fields != nil {
		o.Content = &chain.MoveContent{DataType: "moveObject", Type: typ, Fields: fields}
	}
	if display != nil {
		o.Display = &chain.Display{Data: display}
	}
	return o
}

func TestNormalizeNamePrecedence(t *testing.T) {
	got := Normalize(object("0xabc::mod::Thing", map[string]any{"name": "A"}, map[string]any{"name": "B"}))
	assert.Equal(t, "A", got.Name)

	got = Normalize(object("0xabc::mod::Thing", nil, map[string]any{"name": "B", "title": "C"}))
	assert.Equal(t, "B", got.Name)

	got = Normalize(object("0xabc::mod::Thing", nil, map[string]any{"title": "C"}))
	assert.Equal(t, "C", got.Name)

	got = Normalize(object("0xabc::mod::Thing", nil, nil))
	assert.Equal(t, "0xabc::mod::Thing", got.Name)

	long := "0x1234567890abcdef1234567890abcdef::collectibles::Thing"
	got = Normalize(object(long, nil, nil))
	want, _ := utils.Truncate(long)
	assert.Equal(t, want, got.Name)
	assert.Equal(t, want, got.CollectionLabel)
}

func TestNormalizeFallbacks(t *testing.T) {
	got := Normalize(object("", nil, map[string]any{}))

	assert.Equal(t, "0xaaa", got.ID)
	assert.Equal(t, utils.PLACEHOLDER_IMAGE, got.ImageRef)
	assert.Equal(t, "No description", got.Description)
	assert.Equal(t, "Unknown Collection", got.CollectionLabel)
}

func TestNormalizeImageAndDescription(t *testing.T) {
	got := Normalize(object("0x2::m::T",
		map[string]any{"description": "from display"},
		map[string]any{"image": "ipfs://img", "desc": "from fields", "image_url": ""},
	))

	assert.Equal(t, "ipfs://img", got.ImageRef)
	assert.Equal(t, "from display", got.Description)

	got = Normalize(object("0x2::m::T", nil, map[string]any{"desc": "short"}))
	assert.Equal(t, "short", got.Description)
}

func TestNormalizeCollectionPrecedence(t *testing.T) {
	typ := "0x2::m::T"
	assert.Equal(t, "D", Normalize(object(typ, map[string]any{"collection": "D"}, map[string]any{"collection": "F"})).CollectionLabel)
	assert.Equal(t, "F", Normalize(object(typ, nil, map[string]any{"collection": "F", "series": "S"})).CollectionLabel)
	assert.Equal(t, "S", Normalize(object(typ, nil, map[string]any{"series": "S", "package": "P"})).CollectionLabel)
	assert.Equal(t, "P", Normalize(object(typ, nil, map[string]any{"package": "P"})).CollectionLabel)
	assert.Equal(t, typ, Normalize(object(typ, nil, map[string]any{"package": "undefined"})).CollectionLabel)
}

func TestNormalizeIgnoresUndefinedAndNested(t *testing.T) {
	got := Normalize(object("0x2::m::T",
		map[string]any{"name": "undefined"},
		map[string]any{"name": map[string]any{"fields": "x"}, "title": "Real"},
	))
	assert.Equal(t, "Real", got.Name)
}

func TestNormalizeIsStable(t *testing.T) {
	o := object("0x2::m::T", map[string]any{"name": "A", "image_url": "u"}, map[string]any{"series": "S"})
	assert.Equal(t, Normalize(o), Normalize(o))
}
