package allowlist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const storageKey = "allowlists"

// saveListState puts the allowlist state in storage.
func saveListState(ctx context.Context, dbConn *db.DB, address common.Address,
	st *listState) error {

	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal allowlist state")
	}

	return dbConn.Put(ctx, buildStoragePath(address), data)
}

// fetchListState gets the allowlist state from storage.
func fetchListState(ctx context.Context, dbConn *db.DB,
	address common.Address) (*listState, error) {

	b, err := dbConn.Fetch(ctx, buildStoragePath(address))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, err
		}

		return nil, errors.Wrap(err, "Failed to fetch allowlist state")
	}

	st := listState{}
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal allowlist state")
	}

	if st.Accounts == nil {
		st.Accounts = make(map[common.Address]bool)
	}

	return &st, nil
}

// Returns the storage path for a given allowlist.
func buildStoragePath(address common.Address) string {
	return fmt.Sprintf("%s/%s", storageKey, address.Hex())
}
