package handlers

import (
	"net/http"

	"github.com/claimtoken/ledger/internal/ledger"
	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/gin-gonic/gin"
)

// Query serves the read-only surface.
type Query struct {
	Ledger *ledger.Ledger
	DB     *db.DB
}

// Config returns the ledger's current global state.
func (h *Query) Config(c *gin.Context) {
	st, err := h.Ledger.Config(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"treasury":          st.Treasury.Hex(),
		"whitelist":         st.Whitelist.Hex(),
		"whitelist_enabled": st.WhitelistEnabled,
		"allowed_tokens":    hexAddresses(st),
		"mint_count":        st.MintCount,
		"burn_count":        st.BurnCount,
		"paused":            h.Ledger.IsPaused(),
	})
}

// Events returns the full event journal in sequence order.
func (h *Query) Events(c *gin.Context) {
	events, err := h.Ledger.Events(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Health reports storage reachability.
func (h *Query) Health(c *gin.Context) {
	if err := h.DB.StatusCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func hexAddresses(st *ledger.State) []string {
	out := make([]string, 0, len(st.AllowedTokens))
	for addr := range st.AllowedTokens {
		out = append(out, addr.Hex())
	}
	return out
}
