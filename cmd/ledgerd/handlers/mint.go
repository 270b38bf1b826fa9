package handlers

import (
	"net/http"
	"strconv"

	"github.com/claimtoken/ledger/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// Mint serves the mint request lifecycle.
type Mint struct {
	Ledger *ledger.Ledger
}

type createMintRequest struct {
	Token       string `json:"token" binding:"required"`
	Amount      uint64 `json:"amount" binding:"required"`
	MinExpected uint64 `json:"min_expected"`

	// Permit fields. When Signature is present the escrow allowance comes
	// from the signed authorization instead of a prior approval.
	Deadline  int64  `json:"deadline"`
	Signature string `json:"signature"`
}

type completeRequest struct {
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	Amount         uint64 `json:"amount" binding:"required"`
}

// Create opens a mint request for the authenticated provider.
func (h *Mint) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var body createMintRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !common.IsHexAddress(body.Token) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token address"})
		return
	}
	tok := common.HexToAddress(body.Token)

	var req *ledger.Request
	var err error
	if len(body.Signature) > 0 {
		sig, decodeErr := hexutil.Decode(body.Signature)
		if decodeErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature encoding"})
			return
		}
		req, err = h.Ledger.RequestMintWithPermit(ctx, caller(c), tok,
			body.Amount, body.MinExpected, body.Deadline, sig)
	} else {
		req, err = h.Ledger.RequestMint(ctx, caller(c), tok,
			body.Amount, body.MinExpected)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// Get returns a single mint request.
func (h *Mint) Get(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.Ledger.GetRequest(c.Request.Context(), ledger.KindMint, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Cancel returns the escrow to the provider and closes the request.
func (h *Mint) Cancel(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.Ledger.CancelMint(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Complete settles the request with the service's issued amount.
func (h *Mint) Complete(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body completeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.Ledger.CompleteMint(c.Request.Context(), caller(c),
		common.HexToHash(body.IdempotencyKey), id, body.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

func requestID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return 0, false
	}
	return id, true
}
