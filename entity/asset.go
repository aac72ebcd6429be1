package entity

import "time"

// AssetRecord is the display-ready form of an on-chain object.
type AssetRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ImageRef        string `json:"image"`
	Description     string `json:"description"`
	CollectionLabel string `json:"collection"`
}

// HiddenAssetRecord joins an AssetRecord with its key inside the vault.
// ContainerIndex is the dynamic field key, not a slice offset.
type HiddenAssetRecord struct {
	AssetRecord
	ContainerIndex uint64    `json:"vault_index"`
	ConcealedAt    time.Time `json:"hidden_at"`
}
