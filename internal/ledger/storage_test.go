package ledger

import (
	"testing"
	"time"

	"github.com/claimtoken/ledger/internal/platform/tests"

	"github.com/google/go-cmp/cmp"
)

func TestRequestRoundTrip(t *testing.T) {
	defer tests.Recover(t)

	harness := tests.New(t)
	ctx := harness.Context

	now := time.Now().UTC().Truncate(time.Second)
	want := &Request{
		ID:          7,
		Provider:    tests.RandAddress(),
		State:       StateCreated,
		Amount:      100,
		Token:       tests.RandAddress(),
		MinExpected: 90,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := SaveRequest(ctx, harness.DB, KindMint, want); err != nil {
		t.Fatalf("\t%s\tFailed to save request : %v", tests.Failed, err)
	}

	got, err := FetchRequest(ctx, harness.DB, KindMint, want.ID)
	if err != nil {
		t.Fatalf("\t%s\tFailed to fetch request : %v", tests.Failed, err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("\t%s\tRequest mismatch (-want +got):\n%s", tests.Failed, diff)
	}

	// The two kinds are separate sequences; the same id does not collide.
	if _, err := FetchRequest(ctx, harness.DB, KindBurn, want.ID); err == nil {
		t.Fatalf("\t%s\tBurn sequence shares mint storage", tests.Failed)
	}

	t.Logf("\t%s\tRequest storage round trip verified", tests.Success)
}
