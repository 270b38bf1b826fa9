package handlers

import (
	"net/http"

	"github.com/claimtoken/ledger/internal/allowlist"
	"github.com/claimtoken/ledger/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// Admin serves ledger configuration and the allowlist's owner surface.
type Admin struct {
	Ledger    *ledger.Ledger
	Whitelist *allowlist.List
}

type addressRequest struct {
	Address string `json:"address" binding:"required"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func bindAddress(c *gin.Context) (common.Address, bool) {
	var body addressRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return common.Address{}, false
	}
	if !common.IsHexAddress(body.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return common.Address{}, false
	}
	return common.HexToAddress(body.Address), true
}

// SetTreasury replaces the settlement treasury.
func (h *Admin) SetTreasury(c *gin.Context) {
	addr, ok := bindAddress(c)
	if !ok {
		return
	}

	if err := h.Ledger.SetTreasury(c.Request.Context(), caller(c), addr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"treasury": addr.Hex()})
}

// SetWhitelist replaces the provider allowlist contract.
func (h *Admin) SetWhitelist(c *gin.Context) {
	addr, ok := bindAddress(c)
	if !ok {
		return
	}

	if err := h.Ledger.SetProvidersWhitelist(c.Request.Context(), caller(c), addr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"whitelist": addr.Hex()})
}

// SetWhitelistEnabled toggles allowlist enforcement on request creation.
func (h *Admin) SetWhitelistEnabled(c *gin.Context) {
	var body enabledRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Ledger.SetWhitelistEnabled(c.Request.Context(), caller(c),
		*body.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *body.Enabled})
}

// AddToken allow-lists a token for request creation.
func (h *Admin) AddToken(c *gin.Context) {
	addr, ok := bindAddress(c)
	if !ok {
		return
	}

	if err := h.Ledger.AddAllowedToken(c.Request.Context(), caller(c), addr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": addr.Hex()})
}

// RemoveToken takes a token off the allow list.
func (h *Admin) RemoveToken(c *gin.Context) {
	addr, ok := bindAddress(c)
	if !ok {
		return
	}

	if err := h.Ledger.RemoveAllowedToken(c.Request.Context(), caller(c), addr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": addr.Hex()})
}

// Pause gates provider-facing request creation.
func (h *Admin) Pause(c *gin.Context) {
	if err := h.Ledger.Pause(c.Request.Context(), caller(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

// Unpause releases the pause switch.
func (h *Admin) Unpause(c *gin.Context) {
	if err := h.Ledger.Unpause(c.Request.Context(), caller(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

// EmergencyWithdraw sweeps the ledger's balance of a token to the caller.
func (h *Admin) EmergencyWithdraw(c *gin.Context) {
	addr, ok := bindAddress(c)
	if !ok {
		return
	}

	amount, err := h.Ledger.EmergencyWithdraw(c.Request.Context(), caller(c), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": addr.Hex(), "amount": amount})
}

// AddProvider puts an account on the provider allowlist.
func (h *Admin) AddProvider(c *gin.Context) {
	addr, ok := bindAddress(c)
	if !ok {
		return
	}

	if err := h.Whitelist.AddAccount(c.Request.Context(), caller(c), addr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": addr.Hex()})
}

// RemoveProvider takes an account off the provider allowlist.
func (h *Admin) RemoveProvider(c *gin.Context) {
	addr, ok := bindAddress(c)
	if !ok {
		return
	}

	if err := h.Whitelist.RemoveAccount(c.Request.Context(), caller(c), addr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": addr.Hex()})
}

// TransferOwnership nominates a new allowlist owner.
func (h *Admin) TransferOwnership(c *gin.Context) {
	addr, ok := bindAddress(c)
	if !ok {
		return
	}

	if err := h.Whitelist.TransferOwnership(c.Request.Context(), caller(c), addr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending_owner": addr.Hex()})
}

// AcceptOwnership completes an allowlist ownership transfer.
func (h *Admin) AcceptOwnership(c *gin.Context) {
	if err := h.Whitelist.AcceptOwnership(c.Request.Context(), caller(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": caller(c).Hex()})
}
