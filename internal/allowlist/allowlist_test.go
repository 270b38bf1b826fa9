package allowlist

import (
	"testing"

	"github.com/claimtoken/ledger/internal/platform/tests"

	"github.com/pkg/errors"
)

func TestMembership(t *testing.T) {
	defer tests.Recover(t)

	harness := tests.New(t)
	ctx := harness.Context

	owner := tests.RandAddress()
	provider := tests.RandAddress()

	list, err := New(ctx, harness.DB, tests.RandAddress(), owner)
	if err != nil {
		t.Fatalf("\t%s\tFailed to create list : %v", tests.Failed, err)
	}

	if list.IsAllowedAccount(ctx, provider) {
		t.Fatalf("\t%s\tFresh list allows an account", tests.Failed)
	}

	// Only the owner mutates the list.
	err = list.AddAccount(ctx, tests.RandAddress(), provider)
	if errors.Cause(err) != ErrNotOwner {
		t.Fatalf("\t%s\tExpected not owner, got %v", tests.Failed, err)
	}

	if err := list.AddAccount(ctx, owner, provider); err != nil {
		t.Fatalf("\t%s\tFailed to add account : %v", tests.Failed, err)
	}
	if !list.IsAllowedAccount(ctx, provider) {
		t.Fatalf("\t%s\tAdded account not allowed", tests.Failed)
	}

	if err := list.RemoveAccount(ctx, owner, provider); err != nil {
		t.Fatalf("\t%s\tFailed to remove account : %v", tests.Failed, err)
	}
	if list.IsAllowedAccount(ctx, provider) {
		t.Fatalf("\t%s\tRemoved account still allowed", tests.Failed)
	}

	t.Logf("\t%s\tMembership mutations verified", tests.Success)
}

func TestOwnershipTransfer(t *testing.T) {
	defer tests.Recover(t)

	harness := tests.New(t)
	ctx := harness.Context

	owner := tests.RandAddress()
	nominee := tests.RandAddress()

	list, err := New(ctx, harness.DB, tests.RandAddress(), owner)
	if err != nil {
		t.Fatalf("\t%s\tFailed to create list : %v", tests.Failed, err)
	}

	// Nobody can accept before a nomination exists.
	err = list.AcceptOwnership(ctx, nominee)
	if errors.Cause(err) != ErrNotPendingOwner {
		t.Fatalf("\t%s\tExpected not pending owner, got %v", tests.Failed, err)
	}

	if err := list.TransferOwnership(ctx, owner, nominee); err != nil {
		t.Fatalf("\t%s\tFailed to nominate : %v", tests.Failed, err)
	}

	// Nomination alone changes nothing.
	if got := list.Owner(); got != owner {
		t.Fatalf("\t%s\tOwner changed before acceptance : %s", tests.Failed, got.Hex())
	}

	err = list.AcceptOwnership(ctx, tests.RandAddress())
	if errors.Cause(err) != ErrNotPendingOwner {
		t.Fatalf("\t%s\tExpected not pending owner, got %v", tests.Failed, err)
	}

	if err := list.AcceptOwnership(ctx, nominee); err != nil {
		t.Fatalf("\t%s\tFailed to accept : %v", tests.Failed, err)
	}
	if got := list.Owner(); got != nominee {
		t.Fatalf("\t%s\tOwnership did not move : %s", tests.Failed, got.Hex())
	}

	// The old owner is out, the new one is in.
	err = list.AddAccount(ctx, owner, tests.RandAddress())
	if errors.Cause(err) != ErrNotOwner {
		t.Fatalf("\t%s\tExpected not owner for previous owner, got %v", tests.Failed, err)
	}
	if err := list.AddAccount(ctx, nominee, tests.RandAddress()); err != nil {
		t.Fatalf("\t%s\tNew owner cannot mutate : %v", tests.Failed, err)
	}

	t.Logf("\t%s\tTwo-step ownership transfer verified", tests.Success)
}

func TestPersistedOwnerWins(t *testing.T) {
	defer tests.Recover(t)

	harness := tests.New(t)
	ctx := harness.Context

	owner := tests.RandAddress()
	addr := tests.RandAddress()

	list, err := New(ctx, harness.DB, addr, owner)
	if err != nil {
		t.Fatalf("\t%s\tFailed to create list : %v", tests.Failed, err)
	}
	if err := list.AddAccount(ctx, owner, tests.RandAddress()); err != nil {
		t.Fatalf("\t%s\tFailed to add account : %v", tests.Failed, err)
	}

	reloaded, err := New(ctx, harness.DB, addr, tests.RandAddress())
	if err != nil {
		t.Fatalf("\t%s\tFailed to reload list : %v", tests.Failed, err)
	}
	if got := reloaded.Owner(); got != owner {
		t.Fatalf("\t%s\tReload replaced persisted owner : %s", tests.Failed, got.Hex())
	}

	t.Logf("\t%s\tPersisted owner survives reload", tests.Success)
}
