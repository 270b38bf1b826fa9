package handlers

import (
	"net/http"

	"github.com/claimtoken/ledger/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// Burn serves the burn request lifecycle.
type Burn struct {
	Ledger *ledger.Ledger
}

type createBurnRequest struct {
	Amount      uint64 `json:"amount" binding:"required"`
	Token       string `json:"token" binding:"required"` // desired payout token
	MinExpected uint64 `json:"min_expected"`

	Deadline  int64  `json:"deadline"`
	Signature string `json:"signature"`
}

// Create opens a burn request for the authenticated provider.
func (h *Burn) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var body createBurnRequest
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
		req, err = h.Ledger.RequestBurnWithPermit(ctx, caller(c), body.Amount,
			tok, body.MinExpected, body.Deadline, sig)
	} else {
		req, err = h.Ledger.RequestBurn(ctx, caller(c), body.Amount, tok,
			body.MinExpected)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// Get returns a single burn request.
func (h *Burn) Get(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.Ledger.GetRequest(c.Request.Context(), ledger.KindBurn, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Cancel returns the escrowed claim tokens and closes the request.
func (h *Burn) Cancel(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.Ledger.CancelBurn(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Complete settles the request with the service's payout amount.
func (h *Burn) Complete(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body completeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.Ledger.CompleteBurn(c.Request.Context(), caller(c),
		common.HexToHash(body.IdempotencyKey), id, body.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}
