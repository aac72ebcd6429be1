package request

type ConcealReq struct {
	AssetID string `json:"asset_id" binding:"required"`
}

// RevealReq takes a pointer so index 0 passes the required check.
type RevealReq struct {
	Index *uint64 `json:"index" binding:"required"`
}

type BurnReq struct {
	AssetID string `json:"asset_id" binding:"required"`
}
