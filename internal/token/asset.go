package token

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// AssetToken is an in-process fungible token meeting the Token contract.
// State is persisted through the db connection after every mutation, so a
// restarted process picks up the same balances.
type AssetToken struct {
	mu      sync.Mutex
	dbConn  *db.DB
	address common.Address
	state   *assetState
}

type assetState struct {
	Symbol      string                                       `json:"symbol"`
	TotalSupply uint64                                       `json:"total_supply"`
	Balances    map[common.Address]uint64                    `json:"balances"`
	Allowances  map[common.Address]map[common.Address]uint64 `json:"allowances"`
	Nonces      map[common.Address]uint64                    `json:"nonces"`

	// UsedKeys is only populated for claim tokens, which deduplicate
	// settlement instructions by idempotency key.
	UsedKeys map[common.Hash]bool `json:"used_keys,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func newAssetState(symbol string) *assetState {
	return &assetState{
		Symbol:     symbol,
		Balances:   make(map[common.Address]uint64),
		Allowances: make(map[common.Address]map[common.Address]uint64),
		Nonces:     make(map[common.Address]uint64),
	}
}

// NewAssetToken returns an AssetToken at the given address, loading any
// previously persisted state.
func NewAssetToken(ctx context.Context, dbConn *db.DB, address common.Address,
	symbol string) (*AssetToken, error) {

	if address == (common.Address{}) {
		return nil, ErrZeroAddress
	}

	t := &AssetToken{
		dbConn:  dbConn,
		address: address,
	}

	st, err := fetchAssetState(ctx, dbConn, address)
	if err == nil {
		t.state = st
		return t, nil
	}
	if errors.Cause(err) != db.ErrNotFound {
		return nil, err
	}

	t.state = newAssetState(symbol)
	return t, nil
}

func (t *AssetToken) Address() common.Address {
	return t.address
}

func (t *AssetToken) Symbol() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Symbol
}

func (t *AssetToken) BalanceOf(ctx context.Context, owner common.Address) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Balances[owner]
}

func (t *AssetToken) TotalSupply(ctx context.Context) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.TotalSupply
}

func (t *AssetToken) Allowance(ctx context.Context, owner, spender common.Address) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Allowances[owner][spender]
}

// Nonce returns the next permit nonce for an owner.
func (t *AssetToken) Nonce(ctx context.Context, owner common.Address) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Nonces[owner]
}

// Issue credits newly created supply to an account. Only used when seeding
// a token at deployment.
func (t *AssetToken) Issue(ctx context.Context, to common.Address, amount uint64) error {
	ctx, span := trace.StartSpan(ctx, "internal.token.Issue")
	defer span.End()

	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.credit(to, amount); err != nil {
		return err
	}

	return t.save(ctx)
}

// Transfer moves amount from the calling account to another.
func (t *AssetToken) Transfer(ctx context.Context, from, to common.Address,
	amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.Transfer")
	defer span.End()

	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.state.Balances[to] += amount

	return t.save(ctx)
}

// TransferFrom moves amount from owner to another account, spending the
// allowance granted to spender.
func (t *AssetToken) TransferFrom(ctx context.Context, spender, owner,
	to common.Address, amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.TransferFrom")
	defer span.End()

	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.state.Allowances[owner][spender]
	if allowed < amount {
		return errors.Wrapf(ErrInsufficientAllowance, "%d < %d", allowed, amount)
	}

	if err := t.debit(owner, amount); err != nil {
		return err
	}
	t.state.Allowances[owner][spender] = allowed - amount
	t.state.Balances[to] += amount

	return t.save(ctx)
}

// Approve grants spender an allowance on behalf of owner.
func (t *AssetToken) Approve(ctx context.Context, owner, spender common.Address,
	amount uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.Approve")
	defer span.End()

	if spender == (common.Address{}) {
		return ErrZeroAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.setAllowance(owner, spender, amount)
	return t.save(ctx)
}

// Permit grants spender an allowance of value on behalf of owner, authorized
// by a secp256k1 signature over the permit digest instead of a prior Approve
// call. The owner nonce is consumed whether or not a prior allowance existed.
func (t *AssetToken) Permit(ctx context.Context, owner, spender common.Address,
	value uint64, deadline int64, sig []byte) error {

	ctx, span := trace.StartSpan(ctx, "internal.token.Permit")
	defer span.End()

	if owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}

	if deadline < time.Now().Unix() {
		return ErrPermitExpired
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	nonce := t.state.Nonces[owner]
	digest := PermitDigest(t.address, owner, spender, value, nonce, deadline)

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}

	if crypto.PubkeyToAddress(*pub) != owner {
		return ErrInvalidSignature
	}

	t.state.Nonces[owner] = nonce + 1
	t.setAllowance(owner, spender, value)
	return t.save(ctx)
}

// PermitDigest returns the digest an owner signs to authorize an allowance.
// The token address and owner nonce bind the signature to one token and one
// use.
func PermitDigest(token, owner, spender common.Address, value, nonce uint64,
	deadline int64) common.Hash {

	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], value)
	binary.BigEndian.PutUint64(buf[8:16], nonce)
	binary.BigEndian.PutUint64(buf[16:24], uint64(deadline))

	return common.BytesToHash(crypto.Keccak256(
		token.Bytes(), owner.Bytes(), spender.Bytes(), buf[:]))
}

// debit and credit assume the token mutex is held.
func (t *AssetToken) debit(from common.Address, amount uint64) error {
	balance := t.state.Balances[from]
	if balance < amount {
		return errors.Wrapf(ErrInsufficientBalance, "%d < %d", balance, amount)
	}

	t.state.Balances[from] = balance - amount
	return nil
}

func (t *AssetToken) credit(to common.Address, amount uint64) error {
	if t.state.TotalSupply+amount < t.state.TotalSupply {
		return ErrSupplyOverflow
	}

	t.state.TotalSupply += amount
	t.state.Balances[to] += amount
	return nil
}

func (t *AssetToken) setAllowance(owner, spender common.Address, amount uint64) {
	spenders, exists := t.state.Allowances[owner]
	if !exists {
		spenders = make(map[common.Address]uint64)
		t.state.Allowances[owner] = spenders
	}
	spenders[spender] = amount
}

func (t *AssetToken) save(ctx context.Context) error {
	t.state.UpdatedAt = time.Now().UTC()
	return saveAssetState(ctx, t.dbConn, t.address, t.state)
}
