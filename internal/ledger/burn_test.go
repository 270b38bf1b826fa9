package ledger

import (
	"testing"
	"time"

	"github.com/claimtoken/ledger/internal/platform/tests"
	"github.com/claimtoken/ledger/internal/token"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

func TestBurnLifecycle(t *testing.T) {
	defer tests.Recover(t)

	f := newFixture(t)
	ctx := f.Context

	req, err := f.ledger.RequestBurn(ctx, f.provider, 100, f.asset.Address(), 90)
	if err != nil {
		t.Fatalf("\t%s\tFailed to request burn : %v", tests.Failed, err)
	}
	if req.ID != 0 || req.State != StateCreated {
		t.Fatalf("\t%s\tWrong initial request : id %d state %s",
			tests.Failed, req.ID, req.State)
	}

	// Claim tokens escrowed in ledger custody.
	if got := f.claim.BalanceOf(ctx, f.provider); got != fundAmount-100 {
		t.Fatalf("\t%s\tWrong provider claim balance : got %d", tests.Failed, got)
	}
	if got := f.claim.BalanceOf(ctx, f.ledger.Address()); got != 100 {
		t.Fatalf("\t%s\tWrong escrow balance : got %d", tests.Failed, got)
	}

	supplyBefore := f.claim.TotalSupply(ctx)

	done, err := f.ledger.CompleteBurn(ctx, f.service, tests.RandHash(), req.ID, 95)
	if err != nil {
		t.Fatalf("\t%s\tFailed to complete burn : %v", tests.Failed, err)
	}
	if done.State != StateCompleted {
		t.Fatalf("\t%s\tWrong final state : %s", tests.Failed, done.State)
	}

	// 95 payout tokens from the treasury, the escrowed 100 burned.
	if got := f.asset.BalanceOf(ctx, f.provider); got != fundAmount+95 {
		t.Fatalf("\t%s\tWrong provider payout : got %d", tests.Failed, got)
	}
	if got := f.asset.BalanceOf(ctx, f.treasury); got != fundAmount-95 {
		t.Fatalf("\t%s\tWrong treasury balance : got %d", tests.Failed, got)
	}
	if got := f.claim.BalanceOf(ctx, f.ledger.Address()); got != 0 {
		t.Fatalf("\t%s\tEscrow not burned : %d", tests.Failed, got)
	}
	if got := f.claim.TotalSupply(ctx); got != supplyBefore-100 {
		t.Fatalf("\t%s\tWrong claim supply : got %d", tests.Failed, got)
	}

	t.Logf("\t%s\tBurn lifecycle verified", tests.Success)
}

func TestCancelBurn(t *testing.T) {
	defer tests.Recover(t)

	f := newFixture(t)
	ctx := f.Context

	req, err := f.ledger.RequestBurn(ctx, f.provider, 100, f.asset.Address(), 90)
	if err != nil {
		t.Fatalf("\t%s\tFailed to request burn : %v", tests.Failed, err)
	}

	cancelled, err := f.ledger.CancelBurn(ctx, f.provider, req.ID)
	if err != nil {
		t.Fatalf("\t%s\tFailed to cancel : %v", tests.Failed, err)
	}
	if cancelled.State != StateCancelled {
		t.Fatalf("\t%s\tWrong state after cancel : %s", tests.Failed, cancelled.State)
	}

	// The claim escrow came back, nothing burned.
	if got := f.claim.BalanceOf(ctx, f.provider); got != fundAmount {
		t.Fatalf("\t%s\tEscrow not returned : %d", tests.Failed, got)
	}
	if got := f.claim.TotalSupply(ctx); got != fundAmount {
		t.Fatalf("\t%s\tSupply changed on cancel : %d", tests.Failed, got)
	}

	_, err = f.ledger.CancelBurn(ctx, f.provider, req.ID)
	var illegalState IllegalStateError
	if !errors.As(err, &illegalState) || illegalState.Actual != StateCancelled {
		t.Fatalf("\t%s\tExpected illegal state, got %v", tests.Failed, err)
	}

	// A cancelled request cannot be completed either.
	_, err = f.ledger.CompleteBurn(ctx, f.service, tests.RandHash(), req.ID, 95)
	if !errors.As(err, &illegalState) || illegalState.Actual != StateCancelled {
		t.Fatalf("\t%s\tExpected illegal state on complete, got %v", tests.Failed, err)
	}

	t.Logf("\t%s\tBurn cancel semantics verified", tests.Success)
}

func TestCompleteBurnGuards(t *testing.T) {
	defer tests.Recover(t)

	f := newFixture(t)
	ctx := f.Context

	req, err := f.ledger.RequestBurn(ctx, f.provider, 100, f.asset.Address(), 90)
	if err != nil {
		t.Fatalf("\t%s\tFailed to request burn : %v", tests.Failed, err)
	}

	_, err = f.ledger.CompleteBurn(ctx, f.service, tests.RandHash(), 42, 95)
	var notExist RequestNotExistError
	if !errors.As(err, &notExist) || notExist.Kind != KindBurn {
		t.Fatalf("\t%s\tExpected not exist, got %v", tests.Failed, err)
	}

	_, err = f.ledger.CompleteBurn(ctx, f.service, tests.RandHash(), req.ID, 89)
	var insufficient InsufficientAmountError
	if !errors.As(err, &insufficient) || insufficient.Kind != KindBurn {
		t.Fatalf("\t%s\tExpected insufficient amount, got %v", tests.Failed, err)
	}

	// A used key is rejected before any funds move.
	key := tests.RandHash()
	if err := f.claim.Mint(ctx, key, tests.RandAddress(), 1); err != nil {
		t.Fatalf("\t%s\tFailed to consume key : %v", tests.Failed, err)
	}

	_, err = f.ledger.CompleteBurn(ctx, f.service, key, req.ID, 95)
	if errors.Cause(err) != token.ErrKeyAlreadyUsed {
		t.Fatalf("\t%s\tExpected key already used, got %v", tests.Failed, err)
	}
	if got := f.asset.BalanceOf(ctx, f.treasury); got != fundAmount {
		t.Fatalf("\t%s\tReplayed completion pulled payout : %d", tests.Failed, got)
	}
	if got := f.claim.BalanceOf(ctx, f.ledger.Address()); got != 100 {
		t.Fatalf("\t%s\tReplayed completion touched escrow : %d", tests.Failed, got)
	}

	stored, err := f.ledger.GetRequest(ctx, KindBurn, req.ID)
	if err != nil {
		t.Fatalf("\t%s\tFailed to fetch request : %v", tests.Failed, err)
	}
	if stored.State != StateCreated {
		t.Fatalf("\t%s\tFailed completion changed state : %s", tests.Failed, stored.State)
	}

	if _, err := f.ledger.CompleteBurn(ctx, f.service, tests.RandHash(), req.ID, 95); err != nil {
		t.Fatalf("\t%s\tRetry with fresh key failed : %v", tests.Failed, err)
	}

	t.Logf("\t%s\tBurn completion guards verified", tests.Success)
}

func TestRequestBurnPayoutTokenGuard(t *testing.T) {
	defer tests.Recover(t)

	f := newFixture(t)
	ctx := f.Context

	// The allowed-token check applies to the desired payout token.
	var notAllowed TokenNotAllowedError
	_, err := f.ledger.RequestBurn(ctx, f.provider, 100, tests.RandAddress(), 90)
	if !errors.As(err, &notAllowed) {
		t.Fatalf("\t%s\tExpected token not allowed, got %v", tests.Failed, err)
	}

	if err := f.ledger.RemoveAllowedToken(ctx, f.admin, f.asset.Address()); err != nil {
		t.Fatalf("\t%s\tFailed to remove token : %v", tests.Failed, err)
	}
	_, err = f.ledger.RequestBurn(ctx, f.provider, 100, f.asset.Address(), 90)
	if !errors.As(err, &notAllowed) {
		t.Fatalf("\t%s\tExpected token not allowed after removal, got %v",
			tests.Failed, err)
	}

	t.Logf("\t%s\tPayout token guard verified", tests.Success)
}

func TestRequestBurnWithPermit(t *testing.T) {
	defer tests.Recover(t)

	f := newFixture(t)
	ctx := f.Context

	ownerKey, owner := tests.GenerateKey(t)
	if err := f.claim.Mint(ctx, tests.RandHash(), owner, 500); err != nil {
		t.Fatalf("\t%s\tFailed to fund owner : %v", tests.Failed, err)
	}

	deadline := time.Now().Add(time.Hour).Unix()
	digest := token.PermitDigest(f.claim.Address(), owner, f.ledger.Address(),
		100, f.claim.Nonce(ctx, owner), deadline)
	sig, err := crypto.Sign(digest.Bytes(), ownerKey)
	if err != nil {
		t.Fatalf("\t%s\tFailed to sign permit : %v", tests.Failed, err)
	}

	if _, err := f.ledger.RequestBurnWithPermit(ctx, owner, 100,
		f.asset.Address(), 90, deadline, sig); err != nil {
		t.Fatalf("\t%s\tFailed to request with permit : %v", tests.Failed, err)
	}
	if got := f.claim.BalanceOf(ctx, owner); got != 400 {
		t.Fatalf("\t%s\tEscrow not pulled : %d", tests.Failed, got)
	}

	// An expired permit creates no request.
	stale := time.Now().Add(-time.Hour).Unix()
	_, err = f.ledger.RequestBurnWithPermit(ctx, owner, 100,
		f.asset.Address(), 90, stale, sig)
	if errors.Cause(err) != token.ErrPermitExpired {
		t.Fatalf("\t%s\tExpected expired permit, got %v", tests.Failed, err)
	}

	st, err := f.ledger.Config(ctx)
	if err != nil {
		t.Fatalf("\t%s\tFailed to fetch state : %v", tests.Failed, err)
	}
	if st.BurnCount != 1 {
		t.Fatalf("\t%s\tFailed permit advanced the sequence : %d",
			tests.Failed, st.BurnCount)
	}

	t.Logf("\t%s\tPermit-based burn creation verified", tests.Success)
}
