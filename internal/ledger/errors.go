package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrZeroAddress occurs when the null address is given where a real
	// account or contract is required.
	ErrZeroAddress = errors.New("Zero address")
)

// InvalidAmountError occurs when a request is created with a zero amount.
type InvalidAmountError struct {
	Amount uint64
}

func (e InvalidAmountError) Error() string {
	return fmt.Sprintf("Invalid amount %d", e.Amount)
}

// InvalidTokenAddressError occurs when a token address has no deployed
// contract behind it.
type InvalidTokenAddressError struct {
	Address common.Address
}

func (e InvalidTokenAddressError) Error() string {
	return fmt.Sprintf("Invalid token address %s", e.Address.Hex())
}

// InvalidProvidersWhitelistError occurs when the whitelist address has no
// deployed contract behind it.
type InvalidProvidersWhitelistError struct {
	Address common.Address
}

func (e InvalidProvidersWhitelistError) Error() string {
	return fmt.Sprintf("Invalid providers whitelist %s", e.Address.Hex())
}

// TokenNotAllowedError occurs when a request names a token that is not
// allow-listed.
type TokenNotAllowedError struct {
	Token common.Address
}

func (e TokenNotAllowedError) Error() string {
	return fmt.Sprintf("Token not allowed %s", e.Token.Hex())
}

// UnknownProviderError occurs when whitelist enforcement is on and the
// caller is not an allow-listed provider.
type UnknownProviderError struct {
	Provider common.Address
}

func (e UnknownProviderError) Error() string {
	return fmt.Sprintf("Unknown provider %s", e.Provider.Hex())
}

// IllegalAddressError occurs when a request is acted on by anyone but its
// provider. For a request that was never created the expected provider
// reads as the zero address.
type IllegalAddressError struct {
	Expected common.Address
	Actual   common.Address
}

func (e IllegalAddressError) Error() string {
	return fmt.Sprintf("Illegal address : expected %s, got %s",
		e.Expected.Hex(), e.Actual.Hex())
}

// IllegalStateError occurs when a request is not in the state an operation
// requires. Carrying both sides lets callers distinguish "already cancelled"
// from "already completed".
type IllegalStateError struct {
	Expected RequestState
	Actual   RequestState
}

func (e IllegalStateError) Error() string {
	return fmt.Sprintf("Illegal state : expected %s, got %s",
		e.Expected, e.Actual)
}

// RequestNotExistError occurs when an id is outside the created range of its
// sequence.
type RequestNotExistError struct {
	Kind Kind
	ID   uint64
}

func (e RequestNotExistError) Error() string {
	return fmt.Sprintf("%s request %d does not exist", e.Kind, e.ID)
}

// InsufficientAmountError occurs when the service's proposed settlement
// amount is below the provider's floor. The request stays CREATED and may be
// retried with a corrected amount or cancelled.
type InsufficientAmountError struct {
	Kind        Kind
	Amount      uint64
	MinExpected uint64
}

func (e InsufficientAmountError) Error() string {
	if e.Kind == KindBurn {
		return fmt.Sprintf("Insufficient withdrawal amount %d < %d",
			e.Amount, e.MinExpected)
	}
	return fmt.Sprintf("Insufficient mint amount %d < %d",
		e.Amount, e.MinExpected)
}
