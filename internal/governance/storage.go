package governance

import (
	"context"
	"encoding/json"

	"github.com/claimtoken/ledger/internal/platform/db"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const storageKey = "governance/policy"

// savePolicyState puts the policy state in storage.
func savePolicyState(ctx context.Context, dbConn *db.DB, st *policyState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal policy state")
	}

	return dbConn.Put(ctx, storageKey, data)
}

// fetchPolicyState gets the policy state from storage.
func fetchPolicyState(ctx context.Context, dbConn *db.DB) (*policyState, error) {
	b, err := dbConn.Fetch(ctx, storageKey)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, err
		}

		return nil, errors.Wrap(err, "Failed to fetch policy state")
	}

	st := policyState{}
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal policy state")
	}

	if st.Roles == nil {
		st.Roles = make(map[Role]map[common.Address]bool)
	}

	return &st, nil
}
