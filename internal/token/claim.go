package token

import (
	"context"

	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// ClaimToken is the tracked-value token issued against mint requests and
// destroyed against burn requests. On top of the plain token contract it
// exposes idempotent Mint and Burn keyed by an opaque idempotency key, so a
// settlement instruction resubmitted by the off-chain service cannot apply
// twice. Replaying a key fails with ErrKeyAlreadyUsed regardless of payload.
type ClaimToken struct {
	*AssetToken
}

// NewClaimToken returns a ClaimToken at the given address, loading any
// previously persisted state.
func NewClaimToken(ctx context.Context, dbConn *db.DB, address common.Address,
	symbol string) (*ClaimToken, error) {

	base, err := NewAssetToken(ctx, dbConn, address, symbol)
	if err != nil {
		return nil, err
	}

	if base.state.UsedKeys == nil {
		base.state.UsedKeys = make(map[common.Hash]bool)
	}

	return &ClaimToken{AssetToken: base}, nil
}

// KeyUsed reports whether an idempotency key has been consumed.
func (t *ClaimToken) KeyUsed(ctx context.Context, key common.Hash) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.UsedKeys[key]
}

// Mint creates amount tokens for an account, consuming the idempotency key.
func (t *ClaimToken) Mint(ctx context.Context, key common.Hash,
	to common.Address, amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.ClaimToken.Mint")
	defer span.End()

	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.UsedKeys[key] {
		return errors.Wrap(ErrKeyAlreadyUsed, key.Hex())
	}

	if err := t.credit(to, amount); err != nil {
		return err
	}
	t.state.UsedKeys[key] = true

	return t.save(ctx)
}

// Burn destroys amount tokens held by an account, consuming the idempotency
// key.
func (t *ClaimToken) Burn(ctx context.Context, key common.Hash,
	from common.Address, amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.ClaimToken.Burn")
	defer span.End()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.UsedKeys[key] {
		return errors.Wrap(ErrKeyAlreadyUsed, key.Hex())
	}

	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.state.TotalSupply -= amount
	t.state.UsedKeys[key] = true

	return t.save(ctx)
}
