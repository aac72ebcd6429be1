package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/request"
	"github.com/linlinbupt123-crypto/nft_vault/service"
)

type VaultHandler struct {
	vaultService *service.VaultService
}

func NewVaultHandler(vs *service.VaultService) *VaultHandler {
	return &VaultHandler{vaultService: vs}
}

func (h *VaultHandler) Register(r gin.IRouter) {
	r.GET("/vault/:owner", h.GetSnapshot)
	r.GET("/vault/:owner/hidden", h.GetHidden)
	r.GET("/wallet/:owner/assets", h.GetWalletAssets)
	r.POST("/vault", h.CreateVault)
	r.POST("/vault/conceal", h.Conceal)
	r.POST("/vault/reveal", h.Reveal)
	r.POST("/vault/:owner/refresh", h.Refresh)
	r.POST("/assets/burn", h.Burn)
}

var statusByCode = map[wrapErrors.Code]int{
	wrapErrors.NotConnected:      http.StatusUnauthorized,
	wrapErrors.InvalidArgument:   http.StatusBadRequest,
	wrapErrors.VaultNotFound:     http.StatusNotFound,
	wrapErrors.TypeResolution:    http.StatusUnprocessableEntity,
	wrapErrors.LedgerUnavailable: http.StatusBadGateway,
}

func respondError(c *gin.Context, err error) {
	code := wrapErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": wrapErrors.Message(err), "code": code})
}

// owner reads and normalises the :owner path parameter.
func owner(c *gin.Context) (string, bool) {
	addr, err := chain.NormalizeAddress(c.Param("owner"))
	if err != nil {
		respondError(c, wrapErrors.WrapWithCode(wrapErrors.InvalidArgument, "owner", err))
		return "", false
	}
	return addr, true
}

// GetSnapshot, vault id plus wallet and hidden assets of an owner
func (h *VaultHandler) GetSnapshot(c *gin.Context) {
	addr, ok := owner(c)
	if !ok {
		return
	}
	snap, err := h.vaultService.Snapshot(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *VaultHandler) GetHidden(c *gin.Context) {
	addr, ok := owner(c)
	if !ok {
		return
	}
	hidden, err := h.vaultService.HiddenAssets(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hidden)
}

func (h *VaultHandler) GetWalletAssets(c *gin.Context) {
	addr, ok := owner(c)
	if !ok {
		return
	}
	assets, err := h.vaultService.WalletAssets(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

// CreateVault, create the vault of the configured signer
func (h *VaultHandler) CreateVault(c *gin.Context) {
	m, err := h.vaultService.CreateVault(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *VaultHandler) Conceal(c *gin.Context) {
	var req request.ConcealReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": wrapErrors.InvalidArgument})
		return
	}
	m, err := h.vaultService.Conceal(c.Request.Context(), req.AssetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *VaultHandler) Reveal(c *gin.Context) {
	var req request.RevealReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": wrapErrors.InvalidArgument})
		return
	}
	m, err := h.vaultService.Reveal(c.Request.Context(), *req.Index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Burn, irreversible transfer to the burn address
func (h *VaultHandler) Burn(c *gin.Context) {
	var req request.BurnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": wrapErrors.InvalidArgument})
		return
	}
	m, err := h.vaultService.Burn(c.Request.Context(), req.AssetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *VaultHandler) Refresh(c *gin.Context) {
	addr, ok := owner(c)
	if !ok {
		return
	}
	snap, err := h.vaultService.Refresh(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
