package restapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/adapter"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/service"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/store"
)

type recordingRepo struct {
	saved [][]entity.Account
}

func (r *recordingRepo) Load() ([]entity.Account, error) { return nil, nil }

func (r *recordingRepo) Save(accounts []entity.Account) error {
	r.saved = append(r.saved, accounts)
	return nil
}

func testRouter(t *testing.T) (*gin.Engine, *store.Store, *recordingRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	st := store.New(5*time.Minute, service.RecomputeTotals, log)
	registry := adapter.NewRegistry(nil, nil, nil, nil, log)
	orch := service.NewOrchestrator(st, registry, nil, nil, nil, nil, service.OrchestratorConfig{
		Interval:              time.Minute,
		MaxConcurrentAccounts: 1,
		OracleTimeout:         time.Second,
	}, log)
	repo := &recordingRepo{}

	h := NewHandler(st, nil, orch, repo, log)
	return SetupRouter(h, nil), st, repo
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validAccountPayload(id string) entity.Account {
	return entity.Account{
		ID:             id,
		Kind:           entity.KindWallet,
		Platform:       entity.PlatformEVM,
		Status:         entity.StatusConnected,
		Addresses:      []string{"0xa0a0000000000000000000000000000000000001"},
		DeclaredChains: []entity.ChainID{"ethereum"},
	}
}

func TestCreateAndListAccounts(t *testing.T) {
	router, _, repo := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", validAccountPayload("acct-1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, repo.saved, 1, "every mutation is persisted")

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Accounts []entity.Account `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "acct-1", resp.Accounts[0].ID)
}

func TestCreateAccountValidation(t *testing.T) {
	router, _, repo := testRouter(t)

	invalid := validAccountPayload("acct-1")
	invalid.Addresses = nil // connected without addresses
	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", invalid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.saved, "rejected mutations are not persisted")
}

func TestCreateDuplicateAccount(t *testing.T) {
	router, _, _ := testRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/v1/accounts", validAccountPayload("acct-1")).Code)
	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", validAccountPayload("acct-1"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPatchAccount(t *testing.T) {
	router, st, _ := testRouter(t)
	require.NoError(t, st.AddAccount(validAccountPayload("acct-1")))

	w := doJSON(t, router, http.MethodPatch, "/api/v1/accounts/acct-1", map[string]any{
		"label":  "Cold Wallet",
		"status": "disconnected",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, ok := st.Account("acct-1")
	require.True(t, ok)
	assert.Equal(t, "Cold Wallet", got.Label)
	assert.Equal(t, entity.StatusDisconnected, got.Status)
}

func TestPatchUnknownAccount(t *testing.T) {
	router, _, _ := testRouter(t)
	w := doJSON(t, router, http.MethodPatch, "/api/v1/accounts/ghost", map[string]any{"label": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	router, st, _ := testRouter(t)
	require.NoError(t, st.AddAccount(validAccountPayload("acct-1")))

	w := doJSON(t, router, http.MethodDelete, "/api/v1/accounts/acct-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := st.Account("acct-1")
	assert.False(t, ok)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/accounts/acct-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPortfolio(t *testing.T) {
	router, st, _ := testRouter(t)
	require.NoError(t, st.AddAccount(validAccountPayload("acct-1")))

	price := 2000.0
	value := 3000.0
	asset := entity.NewAsset("acct-1", "ethereum", "0xa0a0000000000000000000000000000000000001", "ETH")
	asset.Balance = "1.5"
	asset.PriceUSD = &price
	asset.ValueUSD = &value
	st.ReplaceAssets([]entity.Asset{asset})

	w := doJSON(t, router, http.MethodGet, "/api/v1/portfolio", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PortfolioResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Assets, 1)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "ETH", resp.Rows[0].Symbol)
	assert.Equal(t, "1.5", resp.Rows[0].Balance)
	assert.InDelta(t, 3000, resp.Portfolio.TotalValueUSD, 1e-9)
	assert.Equal(t, 1, resp.Portfolio.TotalAssetCount)
}

func TestTriggerSyncEndpoint(t *testing.T) {
	router, _, _ := testRouter(t)
	w := doJSON(t, router, http.MethodPost, "/api/v1/sync", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestHealthz(t *testing.T) {
	router, _, _ := testRouter(t)
	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
