// Package governance provides the role and pause capability injected into
// the request ledger. Entry points call RequireRole and RequireNotPaused as
// explicit guards rather than inheriting any ambient behavior.
package governance

import (
	"context"
	"sync"
	"time"

	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Role names an authority recognized by the policy.
type Role string

const (
	// RoleAdmin controls configuration, pausing and role assignment.
	RoleAdmin Role = "ADMIN"

	// RoleService completes requests with a settlement amount.
	RoleService Role = "SERVICE"
)

var (
	// ErrPaused occurs when a provider-facing entry point is called while the
	// circuit breaker is engaged.
	ErrPaused = errors.New("Paused")

	// ErrNotPaused occurs when Unpause is called while running normally.
	ErrNotPaused = errors.New("Not paused")

	// ErrZeroAddress occurs when the null address is given where a real
	// account is required.
	ErrZeroAddress = errors.New("Zero address")
)

// UnauthorizedError is returned when a caller lacks the required role.
type UnauthorizedError struct {
	Role   Role
	Caller common.Address
}

func (e UnauthorizedError) Error() string {
	return "Caller " + e.Caller.Hex() + " lacks role " + string(e.Role)
}

// Policy is the injected role/pause capability.
type Policy struct {
	mu     sync.Mutex
	dbConn *db.DB
	state  *policyState
}

type policyState struct {
	Roles     map[Role]map[common.Address]bool `json:"roles"`
	Paused    bool                             `json:"paused"`
	UpdatedAt time.Time                        `json:"updated_at"`
}

// New returns a Policy, loading any previously persisted state. When no
// state exists the admin account receives RoleAdmin so further grants are
// possible.
func New(ctx context.Context, dbConn *db.DB, admin common.Address) (*Policy, error) {
	if admin == (common.Address{}) {
		return nil, ErrZeroAddress
	}

	p := &Policy{dbConn: dbConn}

	st, err := fetchPolicyState(ctx, dbConn)
	if err == nil {
		p.state = st
		return p, nil
	}
	if errors.Cause(err) != db.ErrNotFound {
		return nil, err
	}

	p.state = &policyState{
		Roles: map[Role]map[common.Address]bool{
			RoleAdmin: {admin: true},
		},
	}
	return p, nil
}

// HasRole reports whether an account holds a role.
func (p *Policy) HasRole(role Role, account common.Address) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Roles[role][account]
}

// RequireRole fails with UnauthorizedError unless the caller holds the role.
func (p *Policy) RequireRole(role Role, caller common.Address) error {
	if !p.HasRole(role, caller) {
		return UnauthorizedError{Role: role, Caller: caller}
	}
	return nil
}

// GrantRole gives an account a role. Admin only.
func (p *Policy) GrantRole(ctx context.Context, caller common.Address, role Role,
	account common.Address) error {

	ctx, span := trace.StartSpan(ctx, "internal.governance.GrantRole")
	defer span.End()

	if account == (common.Address{}) {
		return ErrZeroAddress
	}
	if err := p.RequireRole(RoleAdmin, caller); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	accounts, exists := p.state.Roles[role]
	if !exists {
		accounts = make(map[common.Address]bool)
		p.state.Roles[role] = accounts
	}
	accounts[account] = true

	return p.save(ctx)
}

// RevokeRole removes a role from an account. Admin only.
func (p *Policy) RevokeRole(ctx context.Context, caller common.Address, role Role,
	account common.Address) error {

	ctx, span := trace.StartSpan(ctx, "internal.governance.RevokeRole")
	defer span.End()

	if err := p.RequireRole(RoleAdmin, caller); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.state.Roles[role], account)
	return p.save(ctx)
}

// IsPaused reports whether the circuit breaker is engaged.
func (p *Policy) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Paused
}

// RequireNotPaused fails with ErrPaused while the circuit breaker is engaged.
func (p *Policy) RequireNotPaused() error {
	if p.IsPaused() {
		return ErrPaused
	}
	return nil
}

// Pause engages the circuit breaker. Admin only.
func (p *Policy) Pause(ctx context.Context, caller common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.governance.Pause")
	defer span.End()

	if err := p.RequireRole(RoleAdmin, caller); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Paused {
		return ErrPaused
	}

	p.state.Paused = true
	return p.save(ctx)
}

// Unpause releases the circuit breaker. Admin only.
func (p *Policy) Unpause(ctx context.Context, caller common.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.governance.Unpause")
	defer span.End()

	if err := p.RequireRole(RoleAdmin, caller); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.Paused {
		return ErrNotPaused
	}

	p.state.Paused = false
	return p.save(ctx)
}

func (p *Policy) save(ctx context.Context) error {
	p.state.UpdatedAt = time.Now().UTC()
	return savePolicyState(ctx, p.dbConn, p.state)
}
