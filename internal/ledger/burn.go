package ledger

import (
	"context"
	"time"

	"github.com/claimtoken/ledger/internal/governance"
	"github.com/claimtoken/ledger/internal/platform/db"
	"github.com/claimtoken/ledger/internal/platform/logger"
	"github.com/claimtoken/ledger/internal/token"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/zap"
)

// RequestBurn escrows amount of the claim token from the caller and opens a
// burn request. The allowed-token check applies to the desired payout token,
// not the escrowed asset.
func (l *Ledger) RequestBurn(ctx context.Context, caller common.Address,
	amount uint64, tok common.Address, minExpected uint64) (*Request, error) {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.RequestBurn")
	defer span.End()

	if err := l.policy.RequireNotPaused(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, _, err := l.validateCreate(ctx, caller, tok, amount)
	if err != nil {
		return nil, err
	}

	return l.createBurn(ctx, st, caller, tok, amount, minExpected)
}

// RequestBurnWithPermit is RequestBurn preceded by a permit call on the
// claim token granting the ledger its transfer allowance. A failed permit
// creates no request.
func (l *Ledger) RequestBurnWithPermit(ctx context.Context, caller common.Address,
	amount uint64, tok common.Address, minExpected uint64, deadline int64,
	sig []byte) (*Request, error) {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.RequestBurnWithPermit")
	defer span.End()

	if err := l.policy.RequireNotPaused(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, _, err := l.validateCreate(ctx, caller, tok, amount)
	if err != nil {
		return nil, err
	}

	if err := l.claim.Permit(ctx, caller, l.address, amount, deadline, sig); err != nil {
		return nil, err
	}

	return l.createBurn(ctx, st, caller, tok, amount, minExpected)
}

// CancelBurn returns the escrowed claim tokens to the provider and closes
// the request.
func (l *Ledger) CancelBurn(ctx context.Context, caller common.Address,
	id uint64) (*Request, error) {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.CancelBurn")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	req, err := FetchRequest(ctx, l.dbConn, KindBurn, id)
	if err != nil {
		if errors.Cause(err) == db.ErrNotFound {
			return nil, IllegalAddressError{Actual: caller}
		}
		return nil, err
	}

	if req.Provider != caller {
		return nil, IllegalAddressError{Expected: req.Provider, Actual: caller}
	}
	if req.State != StateCreated {
		return nil, IllegalStateError{Expected: StateCreated, Actual: req.State}
	}

	if err := l.claim.Transfer(ctx, l.address, req.Provider, req.Amount); err != nil {
		return nil, errors.Wrap(err, "Failed to return escrow")
	}

	req.State = StateCancelled
	req.UpdatedAt = time.Now().UTC()
	if err := SaveRequest(ctx, l.dbConn, KindBurn, req); err != nil {
		return nil, err
	}

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return req, err
	}

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type:    EventBurnCancelled,
		Request: &RequestEvent{Kind: KindBurn, ID: req.ID},
	}); err != nil {
		return req, err
	}

	logger.Info(ctx, "Burn request cancelled", zap.Uint64("id", req.ID))
	return req, l.saveState(ctx, st)
}

// CompleteBurn settles a burn request: the escrowed claim tokens are burned
// out of ledger custody keyed by the idempotency key, and actualAmount of
// the payout token moves from the treasury to the provider. The treasury
// must have approved the ledger for the payout.
func (l *Ledger) CompleteBurn(ctx context.Context, caller common.Address,
	key common.Hash, id, actualAmount uint64) (*Request, error) {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.CompleteBurn")
	defer span.End()

	if err := l.policy.RequireRole(governance.RoleService, caller); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return nil, err
	}

	if id >= st.BurnCount {
		return nil, RequestNotExistError{Kind: KindBurn, ID: id}
	}

	req, err := FetchRequest(ctx, l.dbConn, KindBurn, id)
	if err != nil {
		return nil, err
	}

	if req.State != StateCreated {
		return nil, IllegalStateError{Expected: StateCreated, Actual: req.State}
	}
	if actualAmount < req.MinExpected {
		return nil, InsufficientAmountError{
			Kind:        KindBurn,
			Amount:      actualAmount,
			MinExpected: req.MinExpected,
		}
	}

	// Check the key before any funds move. After the payout is pulled the
	// burn of our own escrow must not be able to fail.
	if l.claim.KeyUsed(ctx, key) {
		return nil, errors.Wrap(token.ErrKeyAlreadyUsed, key.Hex())
	}

	t, err := l.resolveToken(req.Token)
	if err != nil {
		return nil, err
	}

	if err := t.TransferFrom(ctx, l.address, st.Treasury, req.Provider,
		actualAmount); err != nil {
		return nil, errors.Wrap(err, "Failed to pull payout from treasury")
	}

	if err := l.claim.Burn(ctx, key, l.address, req.Amount); err != nil {
		return nil, errors.Wrap(err, "Failed to burn escrow")
	}

	req.State = StateCompleted
	req.UpdatedAt = time.Now().UTC()
	if err := SaveRequest(ctx, l.dbConn, KindBurn, req); err != nil {
		return nil, err
	}

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type: EventBurnCompleted,
		Request: &RequestEvent{
			Kind:           KindBurn,
			ID:             req.ID,
			IdempotencyKey: key,
			Amount:         req.Amount,
			SettledAmount:  actualAmount,
		},
	}); err != nil {
		return req, err
	}

	logger.Info(ctx, "Burn request completed",
		zap.Uint64("id", req.ID),
		zap.Uint64("paid", actualAmount))
	return req, l.saveState(ctx, st)
}

// createBurn pulls the claim token escrow and records the request. The
// ledger mutex must be held and the guards already run.
func (l *Ledger) createBurn(ctx context.Context, st *State, caller,
	tok common.Address, amount, minExpected uint64) (*Request, error) {

	if err := l.claim.TransferFrom(ctx, l.address, caller, l.address,
		amount); err != nil {
		return nil, errors.Wrap(err, "Failed to escrow claim token")
	}

	now := time.Now().UTC()
	req := &Request{
		ID:          st.BurnCount,
		Provider:    caller,
		State:       StateCreated,
		Amount:      amount,
		Token:       tok,
		MinExpected: minExpected,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := SaveRequest(ctx, l.dbConn, KindBurn, req); err != nil {
		return nil, err
	}
	st.BurnCount++

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type: EventBurnRequested,
		Request: &RequestEvent{
			Kind:        KindBurn,
			ID:          req.ID,
			Provider:    req.Provider,
			Token:       req.Token,
			Amount:      req.Amount,
			MinExpected: req.MinExpected,
		},
	}); err != nil {
		return req, err
	}

	logger.Info(ctx, "Burn request created",
		zap.Uint64("id", req.ID),
		zap.String("provider", req.Provider.Hex()),
		zap.Uint64("amount", req.Amount))
	return req, l.saveState(ctx, st)
}
