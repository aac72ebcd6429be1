package entity

// Vault is the per-owner container object. Indices is the only source of
// truth for membership and keeps the order the ledger stores it in.
type Vault struct {
	ID      string   `json:"vault_id"`
	Owner   string   `json:"owner"`
	Indices []uint64 `json:"indices"`
}

// Snapshot is everything the presentation layer needs for one owner.
type Snapshot struct {
	Owner   string              `json:"owner"`
	VaultID string              `json:"vault_id,omitempty"`
	Wallet  []AssetRecord       `json:"wallet"`
	Hidden  []HiddenAssetRecord `json:"hidden"`
}

func (s *Snapshot) HasVault() bool {
	return s != nil && s.VaultID != ""
}
