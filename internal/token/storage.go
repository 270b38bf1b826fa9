package token

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const storageKey = "tokens"

// saveAssetState puts a token's full state in storage.
func saveAssetState(ctx context.Context, dbConn *db.DB, address common.Address,
	st *assetState) error {

	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal token state")
	}

	return dbConn.Put(ctx, buildStoragePath(address), data)
}

// fetchAssetState gets a token's state from storage.
func fetchAssetState(ctx context.Context, dbConn *db.DB,
	address common.Address) (*assetState, error) {

	b, err := dbConn.Fetch(ctx, buildStoragePath(address))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, err
		}

		return nil, errors.Wrap(err, "Failed to fetch token state")
	}

	st := assetState{}
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal token state")
	}

	if st.Balances == nil {
		st.Balances = make(map[common.Address]uint64)
	}
	if st.Allowances == nil {
		st.Allowances = make(map[common.Address]map[common.Address]uint64)
	}
	if st.Nonces == nil {
		st.Nonces = make(map[common.Address]uint64)
	}

	return &st, nil
}

// Returns the storage path for a given token.
func buildStoragePath(address common.Address) string {
	return fmt.Sprintf("%s/%s", storageKey, address.Hex())
}
