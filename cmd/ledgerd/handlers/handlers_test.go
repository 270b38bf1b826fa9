package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claimtoken/ledger/cmd/ledgerd/bootstrap"
	"github.com/claimtoken/ledger/internal/allowlist"
	"github.com/claimtoken/ledger/internal/governance"
	"github.com/claimtoken/ledger/internal/ledger"
	"github.com/claimtoken/ledger/internal/platform/tests"
	"github.com/claimtoken/ledger/internal/token"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type apiTest struct {
	router *gin.Engine
	auth   *Authenticator
	asset  *token.AssetToken
	claim  *token.ClaimToken

	admin    common.Address
	service  common.Address
	provider common.Address
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	gin.SetMode(gin.TestMode)

	harness := tests.New(t)
	ctx := harness.Context

	a := &apiTest{
		admin:    tests.RandAddress(),
		service:  tests.RandAddress(),
		provider: tests.RandAddress(),
	}

	policy, err := governance.New(ctx, harness.DB, a.admin)
	require.NoError(t, err)
	require.NoError(t, policy.GrantRole(ctx, a.admin, governance.RoleService, a.service))

	registry := token.NewRegistry()

	a.asset, err = token.NewAssetToken(ctx, harness.DB, tests.RandAddress(), "USDX")
	require.NoError(t, err)
	require.NoError(t, registry.Register(a.asset.Address(), a.asset))

	a.claim, err = token.NewClaimToken(ctx, harness.DB, tests.RandAddress(), "CLM")
	require.NoError(t, err)

	list, err := allowlist.New(ctx, harness.DB, tests.RandAddress(), a.admin)
	require.NoError(t, err)
	require.NoError(t, registry.Register(list.Address(), list))

	ledgerAddr := tests.RandAddress()
	treasury := tests.RandAddress()
	l, err := ledger.New(ctx, harness.DB, policy, registry, a.claim, ledgerAddr,
		treasury, list.Address(), []common.Address{a.asset.Address()})
	require.NoError(t, err)

	require.NoError(t, a.asset.Issue(ctx, a.provider, 10_000))
	require.NoError(t, a.asset.Approve(ctx, a.provider, ledgerAddr, 10_000))

	a.auth = &Authenticator{Secret: []byte("test-secret"), Issuer: "ledgerd"}
	a.router = NewRouter(a.auth, &bootstrap.Deployment{
		Policy:    policy,
		Registry:  registry,
		Claim:     a.claim,
		Whitelist: list,
		Ledger:    l,
		Admin:     a.admin,
		Service:   a.service,
	}, harness.DB)

	return a
}

func (a *apiTest) do(t *testing.T, as common.Address, method, path string,
	body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if as != (common.Address{}) {
		tok, err := a.auth.IssueToken(as)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	a := newAPITest(t)

	w := a.do(t, common.Address{}, http.MethodGet, "/v1/config", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// A token signed with the wrong secret is rejected.
	other := &Authenticator{Secret: []byte("wrong"), Issuer: "ledgerd"}
	tok, err := other.IssueToken(a.provider)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/config", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMintRequestLifecycleOverHTTP(t *testing.T) {
	a := newAPITest(t)

	w := a.do(t, a.provider, http.MethodPost, "/v1/mint/requests", gin.H{
		"token":        a.asset.Address().Hex(),
		"amount":       100,
		"min_expected": 90,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created ledger.Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, uint64(0), created.ID)

	// Completion requires the service role.
	complete := gin.H{"idempotency_key": tests.RandHash().Hex(), "amount": 95}
	w = a.do(t, a.provider, http.MethodPost,
		fmt.Sprintf("/v1/mint/requests/%d/complete", created.ID), complete)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, a.service, http.MethodPost,
		fmt.Sprintf("/v1/mint/requests/%d/complete", created.ID), complete)
	require.Equal(t, http.StatusOK, w.Code)

	var done ledger.Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &done))
	require.Equal(t, ledger.StateCompleted, done.State)

	// Cancelling a completed request is a state conflict.
	w = a.do(t, a.provider, http.MethodPost,
		fmt.Sprintf("/v1/mint/requests/%d/cancel", created.ID), nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSettlementBelowFloorOverHTTP(t *testing.T) {
	a := newAPITest(t)

	w := a.do(t, a.provider, http.MethodPost, "/v1/mint/requests", gin.H{
		"token":        a.asset.Address().Hex(),
		"amount":       100,
		"min_expected": 90,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(t, a.service, http.MethodPost, "/v1/mint/requests/0/complete",
		gin.H{"idempotency_key": tests.RandHash().Hex(), "amount": 89})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// The request is still open and can be cancelled by its provider.
	w = a.do(t, a.provider, http.MethodPost, "/v1/mint/requests/0/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPauseOverHTTP(t *testing.T) {
	a := newAPITest(t)

	// Only the admin may pause.
	w := a.do(t, a.provider, http.MethodPost, "/v1/admin/pause", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, a.admin, http.MethodPost, "/v1/admin/pause", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, a.provider, http.MethodPost, "/v1/mint/requests", gin.H{
		"token":        a.asset.Address().Hex(),
		"amount":       100,
		"min_expected": 90,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, a.admin, http.MethodPost, "/v1/admin/unpause", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestConfigAndNotFoundOverHTTP(t *testing.T) {
	a := newAPITest(t)

	w := a.do(t, a.provider, http.MethodGet, "/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	require.Equal(t, false, cfg["paused"])
	require.Contains(t, cfg["allowed_tokens"], a.asset.Address().Hex())

	w = a.do(t, a.provider, http.MethodGet, "/v1/mint/requests/42", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, a.provider, http.MethodGet, "/v1/mint/requests/abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWhitelistAdminOverHTTP(t *testing.T) {
	a := newAPITest(t)

	w := a.do(t, a.admin, http.MethodPut, "/v1/admin/whitelist/enabled",
		gin.H{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code)

	// Unlisted provider is rejected at creation.
	w = a.do(t, a.provider, http.MethodPost, "/v1/mint/requests", gin.H{
		"token":        a.asset.Address().Hex(),
		"amount":       100,
		"min_expected": 90,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, a.admin, http.MethodPost, "/v1/admin/whitelist/accounts",
		gin.H{"address": a.provider.Hex()})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, a.provider, http.MethodPost, "/v1/mint/requests", gin.H{
		"token":        a.asset.Address().Hex(),
		"amount":       100,
		"min_expected": 90,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}
