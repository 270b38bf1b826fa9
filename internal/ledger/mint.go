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

// RequestMint escrows amount of an allow-listed input token from the caller
// and opens a mint request. The transfer and the request record are a unit:
// a failed pull records nothing.
func (l *Ledger) RequestMint(ctx context.Context, caller, tok common.Address,
	amount, minExpected uint64) (*Request, error) {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.RequestMint")
	defer span.End()

	if err := l.policy.RequireNotPaused(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, t, err := l.validateCreate(ctx, caller, tok, amount)
	if err != nil {
		return nil, err
	}

	return l.createMint(ctx, st, t, caller, tok, amount, minExpected)
}

// RequestMintWithPermit is RequestMint preceded by a permit call granting
// the ledger its transfer allowance from a signed authorization. A failed
// permit creates no request.
func (l *Ledger) RequestMintWithPermit(ctx context.Context, caller,
	tok common.Address, amount, minExpected uint64, deadline int64,
	sig []byte) (*Request, error) {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.RequestMintWithPermit")
	defer span.End()

	if err := l.policy.RequireNotPaused(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, t, err := l.validateCreate(ctx, caller, tok, amount)
	if err != nil {
		return nil, err
	}

	if err := t.Permit(ctx, caller, l.address, amount, deadline, sig); err != nil {
		return nil, err
	}

	return l.createMint(ctx, st, t, caller, tok, amount, minExpected)
}

// CancelMint returns the escrowed input tokens to the provider and closes
// the request. Only the request's provider may cancel; for an id that was
// never created the expected provider reads as the zero address.
func (l *Ledger) CancelMint(ctx context.Context, caller common.Address,
	id uint64) (*Request, error) {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.CancelMint")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	req, err := FetchRequest(ctx, l.dbConn, KindMint, id)
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

	t, err := l.resolveToken(req.Token)
	if err != nil {
		return nil, err
	}

	if err := t.Transfer(ctx, l.address, req.Provider, req.Amount); err != nil {
		return nil, errors.Wrap(err, "Failed to return escrow")
	}

	req.State = StateCancelled
	req.UpdatedAt = time.Now().UTC()
	if err := SaveRequest(ctx, l.dbConn, KindMint, req); err != nil {
		return nil, err
	}

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return req, err
	}

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type:    EventMintCancelled,
		Request: &RequestEvent{Kind: KindMint, ID: req.ID},
	}); err != nil {
		return req, err
	}

	logger.Info(ctx, "Mint request cancelled", zap.Uint64("id", req.ID))
	return req, l.saveState(ctx, st)
}

// CompleteMint settles a mint request: the full escrowed input amount goes
// to the treasury and issuedAmount of the claim token is minted to the
// provider, keyed by the idempotency key. The key protects the token
// primitive against independent retries of the settlement instruction; the
// CREATED guard already prevents re-entry at the ledger level.
func (l *Ledger) CompleteMint(ctx context.Context, caller common.Address,
	key common.Hash, id, issuedAmount uint64) (*Request, error) {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.CompleteMint")
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

	if id >= st.MintCount {
		return nil, RequestNotExistError{Kind: KindMint, ID: id}
	}

	req, err := FetchRequest(ctx, l.dbConn, KindMint, id)
	if err != nil {
		return nil, err
	}

	if req.State != StateCreated {
		return nil, IllegalStateError{Expected: StateCreated, Actual: req.State}
	}
	if issuedAmount < req.MinExpected {
		return nil, InsufficientAmountError{
			Kind:        KindMint,
			Amount:      issuedAmount,
			MinExpected: req.MinExpected,
		}
	}

	// Mint first. The key replay check is the only fallible step of the
	// settlement; moving escrow out of our own custody cannot fail after it.
	if err := l.claim.Mint(ctx, key, req.Provider, issuedAmount); err != nil {
		return nil, err
	}

	t, err := l.resolveToken(req.Token)
	if err != nil {
		return nil, err
	}

	if err := t.Transfer(ctx, l.address, st.Treasury, req.Amount); err != nil {
		return nil, errors.Wrap(err, "Failed to forward escrow to treasury")
	}

	req.State = StateCompleted
	req.UpdatedAt = time.Now().UTC()
	if err := SaveRequest(ctx, l.dbConn, KindMint, req); err != nil {
		return nil, err
	}

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type: EventMintCompleted,
		Request: &RequestEvent{
			Kind:           KindMint,
			ID:             req.ID,
			IdempotencyKey: key,
			SettledAmount:  issuedAmount,
		},
	}); err != nil {
		return req, err
	}

	logger.Info(ctx, "Mint request completed",
		zap.Uint64("id", req.ID),
		zap.Uint64("issued", issuedAmount))
	return req, l.saveState(ctx, st)
}

// validateCreate runs the shared request creation guards and resolves the
// named token. The ledger mutex must be held.
func (l *Ledger) validateCreate(ctx context.Context, caller, tok common.Address,
	amount uint64) (*State, token.Token, error) {

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return nil, nil, err
	}

	if !st.AllowedTokens[tok] {
		return nil, nil, TokenNotAllowedError{Token: tok}
	}
	if amount == 0 {
		return nil, nil, InvalidAmountError{Amount: amount}
	}

	if st.WhitelistEnabled {
		list, err := l.resolveWhitelist(st)
		if err != nil {
			return nil, nil, err
		}
		if !list.IsAllowedAccount(ctx, caller) {
			return nil, nil, UnknownProviderError{Provider: caller}
		}
	}

	t, err := l.resolveToken(tok)
	if err != nil {
		return nil, nil, err
	}

	return st, t, nil
}

// createMint pulls the escrow and records the request. The ledger mutex
// must be held and the guards already run.
func (l *Ledger) createMint(ctx context.Context, st *State, t token.Token,
	caller, tok common.Address, amount, minExpected uint64) (*Request, error) {

	if err := t.TransferFrom(ctx, l.address, caller, l.address, amount); err != nil {
		return nil, errors.Wrap(err, "Failed to escrow input token")
	}

	now := time.Now().UTC()
	req := &Request{
		ID:          st.MintCount,
		Provider:    caller,
		State:       StateCreated,
		Amount:      amount,
		Token:       tok,
		MinExpected: minExpected,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := SaveRequest(ctx, l.dbConn, KindMint, req); err != nil {
		return nil, err
	}
	st.MintCount++

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type: EventMintRequested,
		Request: &RequestEvent{
			Kind:        KindMint,
			ID:          req.ID,
			Provider:    req.Provider,
			Token:       req.Token,
			Amount:      req.Amount,
			MinExpected: req.MinExpected,
		},
	}); err != nil {
		return req, err
	}

	logger.Info(ctx, "Mint request created",
		zap.Uint64("id", req.ID),
		zap.String("provider", req.Provider.Hex()),
		zap.Uint64("amount", req.Amount))
	return req, l.saveState(ctx, st)
}
