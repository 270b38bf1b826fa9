package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrInsufficientBalance occurs when the sender doesn't hold enough tokens.
	ErrInsufficientBalance = errors.New("Insufficient balance")

	// ErrInsufficientAllowance occurs when the spender was not approved for
	// the requested amount.
	ErrInsufficientAllowance = errors.New("Insufficient allowance")

	// ErrKeyAlreadyUsed occurs when an idempotency key is replayed against
	// mint or burn.
	ErrKeyAlreadyUsed = errors.New("Idempotency key already used")

	// ErrPermitExpired occurs when a permit deadline has passed.
	ErrPermitExpired = errors.New("Permit expired")

	// ErrInvalidSignature occurs when a permit signature does not recover to
	// the owner address.
	ErrInvalidSignature = errors.New("Invalid permit signature")

	// ErrZeroAddress occurs when the null address is given where a real
	// account is required.
	ErrZeroAddress = errors.New("Zero address")

	// ErrSupplyOverflow occurs when a mint would overflow the total supply.
	ErrSupplyOverflow = errors.New("Supply overflow")
)

// Token is the transfer/transferFrom/permit contract every escrowable asset
// must meet. There is no ambient caller in process, so the acting account is
// always an explicit argument.
type Token interface {
	Address() common.Address
	Symbol() string

	BalanceOf(ctx context.Context, owner common.Address) uint64
	TotalSupply(ctx context.Context) uint64

	// Transfer moves amount from the calling account to another.
	Transfer(ctx context.Context, from, to common.Address, amount uint64) error

	// TransferFrom moves amount from owner to another account, spending the
	// allowance previously granted to spender.
	TransferFrom(ctx context.Context, spender, owner, to common.Address, amount uint64) error

	Approve(ctx context.Context, owner, spender common.Address, amount uint64) error
	Allowance(ctx context.Context, owner, spender common.Address) uint64

	// Permit grants spender an allowance of value on behalf of owner, using
	// a signed authorization instead of a prior Approve call.
	Permit(ctx context.Context, owner, spender common.Address, value uint64,
		deadline int64, sig []byte) error
}
