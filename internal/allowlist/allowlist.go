// Package allowlist implements the provider membership list consulted by the
// request ledger. Ownership moves with an explicit two-call protocol: the
// current owner nominates a pending owner, who must accept before any
// authority changes hands.
package allowlist

import (
	"context"
	"sync"
	"time"

	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var (
	// ErrNotOwner occurs when a mutation is attempted by anyone but the owner.
	ErrNotOwner = errors.New("Caller is not the owner")

	// ErrNotPendingOwner occurs when AcceptOwnership is called by anyone but
	// the nominated pending owner.
	ErrNotPendingOwner = errors.New("Caller is not the pending owner")

	// ErrZeroAddress occurs when the null address is given where a real
	// account is required.
	ErrZeroAddress = errors.New("Zero address")
)

// List is the provider allowlist.
type List struct {
	mu      sync.Mutex
	dbConn  *db.DB
	address common.Address
	state   *listState
}

type listState struct {
	Owner        common.Address          `json:"owner"`
	PendingOwner common.Address          `json:"pending_owner"`
	Accounts     map[common.Address]bool `json:"accounts"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// New returns a List at the given address owned by owner, loading any
// previously persisted state. A persisted owner wins over the argument.
func New(ctx context.Context, dbConn *db.DB, address, owner common.Address) (*List, error) {
	if address == (common.Address{}) || owner == (common.Address{}) {
		return nil, ErrZeroAddress
	}

	l := &List{
		dbConn:  dbConn,
		address: address,
	}

	st, err := fetchListState(ctx, dbConn, address)
	if err == nil {
		l.state = st
		return l, nil
	}
	if errors.Cause(err) != db.ErrNotFound {
		return nil, err
	}

	l.state = &listState{
		Owner:    owner,
		Accounts: make(map[common.Address]bool),
	}
	return l, nil
}

// Address returns the address the list is deployed at.
func (l *List) Address() common.Address {
	return l.address
}

// Owner returns the current owner.
func (l *List) Owner() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Owner
}

// IsAllowedAccount reports whether an account is on the list.
func (l *List) IsAllowedAccount(ctx context.Context, account common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Accounts[account]
}

// AddAccount puts an account on the list. Owner only.
func (l *List) AddAccount(ctx context.Context, caller, account common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.allowlist.AddAccount")
	defer span.End()

	if account == (common.Address{}) {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.state.Owner {
		return ErrNotOwner
	}

	l.state.Accounts[account] = true
	return l.save(ctx)
}

// RemoveAccount takes an account off the list. Owner only.
func (l *List) RemoveAccount(ctx context.Context, caller, account common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.allowlist.RemoveAccount")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.state.Owner {
		return ErrNotOwner
	}

	delete(l.state.Accounts, account)
	return l.save(ctx)
}

// TransferOwnership nominates a new owner. Nothing changes hands until the
// nominee accepts.
func (l *List) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.allowlist.TransferOwnership")
	defer span.End()

	if newOwner == (common.Address{}) {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.state.Owner {
		return ErrNotOwner
	}

	l.state.PendingOwner = newOwner
	return l.save(ctx)
}

// AcceptOwnership completes an ownership transfer. Pending owner only.
func (l *List) AcceptOwnership(ctx context.Context, caller common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.allowlist.AcceptOwnership")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PendingOwner == (common.Address{}) || caller != l.state.PendingOwner {
		return ErrNotPendingOwner
	}

	l.state.Owner = l.state.PendingOwner
	l.state.PendingOwner = common.Address{}
	return l.save(ctx)
}

func (l *List) save(ctx context.Context) error {
	l.state.UpdatedAt = time.Now().UTC()
	return saveListState(ctx, l.dbConn, l.address, l.state)
}
