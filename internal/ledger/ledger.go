// Package ledger implements the request ledger: the custody engine that
// creates, escrows, cancels and completes mint/burn requests. Each request
// is a small state machine (CREATED, then exactly one of CANCELLED or
// COMPLETED) and the escrowed funds for a CREATED request are held by the
// ledger's own account until the request leaves CREATED, exactly once.
//
// Every external invocation runs to completion under a single mutex, which
// reproduces the serialized, atomic per-call execution the design assumes.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/claimtoken/ledger/internal/allowlist"
	"github.com/claimtoken/ledger/internal/governance"
	"github.com/claimtoken/ledger/internal/platform/db"
	"github.com/claimtoken/ledger/internal/platform/logger"
	"github.com/claimtoken/ledger/internal/token"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/zap"
)

// Ledger owns the two request sequences and the escrow custody account.
type Ledger struct {
	mu       sync.Mutex
	dbConn   *db.DB
	policy   *governance.Policy
	registry *token.Registry
	claim    *token.ClaimToken
	address  common.Address
}

// New constructs the ledger. Persisted state from a previous run wins over
// the constructor arguments; otherwise the state starts with whitelist
// enforcement disabled and both counters at zero.
func New(ctx context.Context, dbConn *db.DB, policy *governance.Policy,
	registry *token.Registry, claim *token.ClaimToken, address, treasury,
	whitelist common.Address, initialAllowedTokens []common.Address) (*Ledger, error) {

	if claim == nil || claim.Address() == (common.Address{}) ||
		treasury == (common.Address{}) || whitelist == (common.Address{}) ||
		address == (common.Address{}) {
		return nil, ErrZeroAddress
	}

	l := &Ledger{
		dbConn:   dbConn,
		policy:   policy,
		registry: registry,
		claim:    claim,
		address:  address,
	}

	if _, err := FetchState(ctx, dbConn); err == nil {
		return l, nil
	} else if errors.Cause(err) != db.ErrNotFound {
		return nil, err
	}

	st := &State{
		Treasury:      treasury,
		Whitelist:     whitelist,
		AllowedTokens: make(map[common.Address]bool),
	}
	for _, tok := range initialAllowedTokens {
		if !registry.IsContract(tok) {
			return nil, InvalidTokenAddressError{Address: tok}
		}
		st.AllowedTokens[tok] = true
	}

	if err := l.saveState(ctx, st); err != nil {
		return nil, err
	}

	return l, nil
}

// Address returns the ledger's own custody account.
func (l *Ledger) Address() common.Address {
	return l.address
}

// ClaimToken returns the claim token the ledger settles against.
func (l *Ledger) ClaimToken() *token.ClaimToken {
	return l.claim
}

// -------------------------------------------------------------------------
// Admin surface. Every operation here requires the ADMIN role.

// SetTreasury replaces the treasury address used by request completion.
func (l *Ledger) SetTreasury(ctx context.Context, caller, treasury common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.ledger.SetTreasury")
	defer span.End()

	if err := l.policy.RequireRole(governance.RoleAdmin, caller); err != nil {
		return err
	}
	if treasury == (common.Address{}) {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return err
	}

	st.Treasury = treasury

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type:   EventConfigChanged,
		Config: &ConfigEvent{Field: "treasury", Address: treasury},
	}); err != nil {
		return err
	}

	return l.saveState(ctx, st)
}

// SetProvidersWhitelist replaces the allowlist the provider checks consult.
func (l *Ledger) SetProvidersWhitelist(ctx context.Context, caller,
	whitelist common.Address) error {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.SetProvidersWhitelist")
	defer span.End()

	if err := l.policy.RequireRole(governance.RoleAdmin, caller); err != nil {
		return err
	}
	if whitelist == (common.Address{}) {
		return ErrZeroAddress
	}
	if !l.registry.IsContract(whitelist) {
		return InvalidProvidersWhitelistError{Address: whitelist}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return err
	}

	st.Whitelist = whitelist

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type:   EventConfigChanged,
		Config: &ConfigEvent{Field: "whitelist", Address: whitelist},
	}); err != nil {
		return err
	}

	return l.saveState(ctx, st)
}

// SetWhitelistEnabled toggles whether request creation consults the
// allowlist. Requests created earlier are unaffected.
func (l *Ledger) SetWhitelistEnabled(ctx context.Context, caller common.Address,
	enabled bool) error {

	ctx, span := trace.StartSpan(ctx, "internal.ledger.SetWhitelistEnabled")
	defer span.End()

	if err := l.policy.RequireRole(governance.RoleAdmin, caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return err
	}

	st.WhitelistEnabled = enabled

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type:   EventConfigChanged,
		Config: &ConfigEvent{Field: "whitelist_enabled", Enabled: enabled},
	}); err != nil {
		return err
	}

	return l.saveState(ctx, st)
}

// AddAllowedToken allow-lists a token for request creation.
func (l *Ledger) AddAllowedToken(ctx context.Context, caller, tok common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.ledger.AddAllowedToken")
	defer span.End()

	if err := l.policy.RequireRole(governance.RoleAdmin, caller); err != nil {
		return err
	}
	if tok == (common.Address{}) {
		return ErrZeroAddress
	}
	if !l.registry.IsContract(tok) {
		return InvalidTokenAddressError{Address: tok}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return err
	}

	st.AllowedTokens[tok] = true

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type:   EventConfigChanged,
		Config: &ConfigEvent{Field: "token_added", Address: tok},
	}); err != nil {
		return err
	}

	return l.saveState(ctx, st)
}

// RemoveAllowedToken takes a token off the allow list. Existing requests for
// the token are unaffected.
func (l *Ledger) RemoveAllowedToken(ctx context.Context, caller, tok common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.ledger.RemoveAllowedToken")
	defer span.End()

	if err := l.policy.RequireRole(governance.RoleAdmin, caller); err != nil {
		return err
	}
	if tok == (common.Address{}) {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return err
	}

	delete(st.AllowedTokens, tok)

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type:   EventConfigChanged,
		Config: &ConfigEvent{Field: "token_removed", Address: tok},
	}); err != nil {
		return err
	}

	return l.saveState(ctx, st)
}

// Pause gates all provider-facing request creation. Admin and service
// operations on already-created requests keep working.
func (l *Ledger) Pause(ctx context.Context, caller common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.ledger.Pause")
	defer span.End()

	if err := l.policy.Pause(ctx, caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return err
	}

	if err := appendEvent(ctx, l.dbConn, st, &Event{Type: EventPaused}); err != nil {
		return err
	}

	return l.saveState(ctx, st)
}

// Unpause releases the pause switch.
func (l *Ledger) Unpause(ctx context.Context, caller common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.ledger.Unpause")
	defer span.End()

	if err := l.policy.Unpause(ctx, caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return err
	}

	if err := appendEvent(ctx, l.dbConn, st, &Event{Type: EventUnpaused}); err != nil {
		return err
	}

	return l.saveState(ctx, st)
}

// EmergencyWithdraw sweeps the ledger's entire balance of a token to the
// caller. This is an unconditional administrative escape hatch for stuck
// funds: it bypasses the request accounting and operators must reconcile
// manually afterwards.
func (l *Ledger) EmergencyWithdraw(ctx context.Context, caller, tok common.Address) (uint64, error) {
	ctx, span := trace.StartSpan(ctx, "internal.ledger.EmergencyWithdraw")
	defer span.End()

	if err := l.policy.RequireRole(governance.RoleAdmin, caller); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := l.resolveToken(tok)
	if err != nil {
		return 0, err
	}

	balance := t.BalanceOf(ctx, l.address)
	if balance > 0 {
		if err := t.Transfer(ctx, l.address, caller, balance); err != nil {
			return 0, errors.Wrap(err, "Failed emergency sweep")
		}
	}

	logger.Warn(ctx, "Emergency withdraw",
		zap.String("token", tok.Hex()),
		zap.String("to", caller.Hex()),
		zap.Uint64("amount", balance))

	st, err := FetchState(ctx, l.dbConn)
	if err != nil {
		return balance, err
	}

	if err := appendEvent(ctx, l.dbConn, st, &Event{
		Type:   EventEmergencySweep,
		Config: &ConfigEvent{Field: "emergency_withdraw", Address: tok, Amount: balance},
	}); err != nil {
		return balance, err
	}

	return balance, l.saveState(ctx, st)
}

// -------------------------------------------------------------------------
// Read surface

// GetRequest returns a single request from either sequence.
func (l *Ledger) GetRequest(ctx context.Context, kind Kind, id uint64) (*Request, error) {
	req, err := FetchRequest(ctx, l.dbConn, kind, id)
	if err != nil {
		if errors.Cause(err) == db.ErrNotFound {
			return nil, RequestNotExistError{Kind: kind, ID: id}
		}
		return nil, err
	}

	return req, nil
}

// Config returns the ledger's current global state.
func (l *Ledger) Config(ctx context.Context) (*State, error) {
	return FetchState(ctx, l.dbConn)
}

// IsPaused reports whether provider-facing creation is gated.
func (l *Ledger) IsPaused() bool {
	return l.policy.IsPaused()
}

// Events returns the event journal in sequence order.
func (l *Ledger) Events(ctx context.Context) ([]*Event, error) {
	return ListEvents(ctx, l.dbConn)
}

// -------------------------------------------------------------------------
// internal helpers

func (l *Ledger) saveState(ctx context.Context, st *State) error {
	st.UpdatedAt = time.Now().UTC()
	return SaveState(ctx, l.dbConn, st)
}

// resolveToken returns the token contract behind an address. The claim token
// resolves directly so it can be swept like any other asset.
func (l *Ledger) resolveToken(addr common.Address) (token.Token, error) {
	if addr == l.claim.Address() {
		return l.claim, nil
	}

	t, ok := l.registry.Token(addr)
	if !ok {
		return nil, InvalidTokenAddressError{Address: addr}
	}

	return t, nil
}

// resolveWhitelist returns the allowlist contract the state points at.
func (l *Ledger) resolveWhitelist(st *State) (*allowlist.List, error) {
	contract, ok := l.registry.Get(st.Whitelist)
	if !ok {
		return nil, InvalidProvidersWhitelistError{Address: st.Whitelist}
	}

	list, ok := contract.(*allowlist.List)
	if !ok {
		return nil, InvalidProvidersWhitelistError{Address: st.Whitelist}
	}

	return list, nil
}
