package ledger

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RequestState is the lifecycle state of a mint or burn request. Created is
// the only non-terminal state; Cancelled and Completed admit no further
// transition.
type RequestState uint8

const (
	StateCreated RequestState = iota
	StateCancelled
	StateCompleted
)

func (s RequestState) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateCancelled:
		return "CANCELLED"
	case StateCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// Kind separates the two request sequences.
type Kind string

const (
	KindMint Kind = "mint"
	KindBurn Kind = "burn"
)

// Request is one entry in a request sequence. Everything but State and
// UpdatedAt is immutable once assigned. Records are never deleted; a request
// in a terminal state remains as a historical record.
type Request struct {
	ID          uint64         `json:"id"`
	Provider    common.Address `json:"provider"`
	State       RequestState   `json:"state"`
	Amount      uint64         `json:"amount"`
	Token       common.Address `json:"token"`
	MinExpected uint64         `json:"min_expected"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// State is the ledger's global configuration and counters. It is mutated
// only through the admin surface and read fresh from storage by every
// operation.
type State struct {
	Treasury         common.Address          `json:"treasury"`
	Whitelist        common.Address          `json:"whitelist"`
	WhitelistEnabled bool                    `json:"whitelist_enabled"`
	AllowedTokens    map[common.Address]bool `json:"allowed_tokens"`

	MintCount  uint64 `json:"mint_count"`
	BurnCount  uint64 `json:"burn_count"`
	EventCount uint64 `json:"event_count"`

	UpdatedAt time.Time `json:"updated_at"`
}
