package token

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrAlreadyDeployed occurs when an address is registered twice.
	ErrAlreadyDeployed = errors.New("Contract already deployed")
)

// Registry tracks the contracts deployed in this process, keyed by address.
// It stands in for the on-chain code-size probe: an address "has code" when
// a contract was registered for it.
type Registry struct {
	mu        sync.RWMutex
	contracts map[common.Address]interface{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		contracts: make(map[common.Address]interface{}),
	}
}

// Register records a deployed contract at an address.
func (r *Registry) Register(addr common.Address, contract interface{}) error {
	if addr == (common.Address{}) {
		return ErrZeroAddress
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contracts[addr]; exists {
		return errors.Wrap(ErrAlreadyDeployed, addr.Hex())
	}

	r.contracts[addr] = contract
	return nil
}

// IsContract reports whether a contract is deployed at the address.
func (r *Registry) IsContract(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.contracts[addr]
	return exists
}

// Get returns the contract deployed at the address.
func (r *Registry) Get(addr common.Address) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contract, exists := r.contracts[addr]
	return contract, exists
}

// Token returns the Token deployed at the address, if the address holds a
// contract meeting the Token interface.
func (r *Registry) Token(addr common.Address) (Token, bool) {
	contract, exists := r.Get(addr)
	if !exists {
		return nil, false
	}

	tok, ok := contract.(Token)
	return tok, ok
}
