package handlers

import (
	"net/http"

	"github.com/claimtoken/ledger/internal/allowlist"
	"github.com/claimtoken/ledger/internal/governance"
	"github.com/claimtoken/ledger/internal/ledger"
	"github.com/claimtoken/ledger/internal/platform/logger"
	"github.com/claimtoken/ledger/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// respondError maps domain errors onto HTTP statuses. Validation failures
// are 400, authority failures 403, missing records 404, state conflicts 409
// and settlement rejections 422. Anything unmapped is a 500 and gets logged.
func respondError(c *gin.Context, err error) {
	cause := errors.Cause(err)

	switch cause {
	case ledger.ErrZeroAddress, allowlist.ErrZeroAddress, governance.ErrZeroAddress,
		token.ErrZeroAddress:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case governance.ErrPaused, governance.ErrNotPaused, token.ErrKeyAlreadyUsed:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case allowlist.ErrNotOwner, allowlist.ErrNotPendingOwner:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case token.ErrInsufficientBalance, token.ErrInsufficientAllowance,
		token.ErrInvalidSignature, token.ErrPermitExpired, token.ErrSupplyOverflow:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	switch cause.(type) {
	case ledger.InvalidAmountError, ledger.InvalidTokenAddressError,
		ledger.InvalidProvidersWhitelistError, ledger.TokenNotAllowedError,
		ledger.UnknownProviderError:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case governance.UnauthorizedError, ledger.IllegalAddressError:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case ledger.RequestNotExistError:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case ledger.IllegalStateError:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case ledger.InsufficientAmountError:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error(c.Request.Context(), "Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
