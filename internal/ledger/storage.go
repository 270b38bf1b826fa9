package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	storageKey      = "ledger"
	stateStorageKey = "ledger/state"
)

// SaveState puts the ledger's global state in storage.
func SaveState(ctx context.Context, dbConn *db.DB, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal ledger state")
	}

	return dbConn.Put(ctx, stateStorageKey, data)
}

// FetchState gets the ledger's global state from storage.
func FetchState(ctx context.Context, dbConn *db.DB) (*State, error) {
	b, err := dbConn.Fetch(ctx, stateStorageKey)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, err
		}

		return nil, errors.Wrap(err, "Failed to fetch ledger state")
	}

	st := State{}
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal ledger state")
	}

	if st.AllowedTokens == nil {
		st.AllowedTokens = make(map[common.Address]bool)
	}

	return &st, nil
}

// SaveRequest puts a single request in storage.
func SaveRequest(ctx context.Context, dbConn *db.DB, kind Kind, req *Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal request")
	}

	return dbConn.Put(ctx, buildRequestPath(kind, req.ID), data)
}

// FetchRequest gets a single request from storage.
func FetchRequest(ctx context.Context, dbConn *db.DB, kind Kind, id uint64) (*Request, error) {
	b, err := dbConn.Fetch(ctx, buildRequestPath(kind, id))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, err
		}

		return nil, errors.Wrap(err, "Failed to fetch request")
	}

	req := Request{}
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal request")
	}

	return &req, nil
}

// Returns the storage path for a request. Ids are zero padded so storage
// listings come back in sequence order.
func buildRequestPath(kind Kind, id uint64) string {
	return fmt.Sprintf("%s/requests/%s/%012d", storageKey, kind, id)
}
