package domain

import (
	"strconv"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	"github.com/linlinbupt123-crypto/nft_vault/utils"
)

const (
	defaultDescription = "No description"
	defaultCollection  = "Unknown Collection"
)

// Normalize maps a ledger object onto an AssetRecord. Each field takes the
// first present source in order display, content, derived from the type;
// the result depends only on obj.
func Normalize(obj *chain.ObjectData) entity.AssetRecord {
	display := obj.DisplayData()
	fields := obj.Fields()

	rec := entity.AssetRecord{ID: obj.ObjectID}

	rec.Name = first(
		lookup(display, "name"),
		lookup(fields, "name"),
		lookup(fields, "title"),
		truncated(obj.Type),
	)
	if rec.Name == "" {
		rec.Name = obj.ObjectID
	}

	rec.ImageRef = first(
		lookup(display, "image_url"),
		lookup(fields, "image_url"),
		lookup(fields, "image"),
	)
	if rec.ImageRef == "" {
		rec.ImageRef = utils.PLACEHOLDER_IMAGE
	}

	rec.Description = first(
		lookup(display, "description"),
		lookup(fields, "description"),
		lookup(fields, "desc"),
	)
	if rec.Description == "" {
		rec.Description = defaultDescription
	}

	rec.CollectionLabel = first(
		lookup(display, "collection"),
		lookup(fields, "collection"),
		lookup(fields, "series"),
		truncated(lookup(fields, "package")),
		truncated(obj.Type),
	)
	if rec.CollectionLabel == "" {
		rec.CollectionLabel = defaultCollection
	}
	return rec
}

func first(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func truncated(s string) string {
	out, _ := utils.Truncate(s)
	return out
}

// lookup stringifies scalar values; nested structures count as absent.
func lookup(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if !t {
			return ""
		}
		s = "true"
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case uint64:
		s = strconv.FormatUint(t, 10)
	default:
		return ""
	}
	if s == "undefined" {
		return ""
	}
	return s
}
