package restapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/service"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/store"
)

// PortfolioResponse is the read-model served to dashboards: the account list,
// the flat asset list with per-asset loading state, the aggregated rows and
// the portfolio totals, all from one consistent snapshot.
type PortfolioResponse struct {
	Accounts  []entity.Account                    `json:"accounts"`
	Assets    []entity.Asset                      `json:"assets"`
	Loading   map[string]entity.AssetLoadingState `json:"loading"`
	Rows      []entity.AggregateRow               `json:"rows"`
	Portfolio entity.PortfolioAggregate           `json:"portfolio"`
}

// Handler serves the account CRUD and portfolio read endpoints.
type Handler struct {
	store        *store.Store
	loader       *service.Loader
	orchestrator *service.Orchestrator
	repo         port.AccountRepository
	logger       *zap.Logger
}

// NewHandler wires the HTTP handler set.
func NewHandler(st *store.Store, loader *service.Loader, orch *service.Orchestrator, repo port.AccountRepository, logger *zap.Logger) *Handler {
	return &Handler{
		store:        st,
		loader:       loader,
		orchestrator: orch,
		repo:         repo,
		logger:       logger.Named("RestAPI"),
	}
}

// ListAccounts handles GET /api/v1/accounts.
func (h *Handler) ListAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": h.store.Accounts()})
}

// CreateAccount handles POST /api/v1/accounts.
func (h *Handler) CreateAccount(c *gin.Context) {
	var account entity.Account
	if err := c.ShouldBindJSON(&account); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account payload: " + err.Error()})
		return
	}
	if err := h.store.AddAccount(account); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.persistAccounts()
	created, _ := h.store.Account(account.ID)
	c.JSON(http.StatusCreated, created)
}

// PatchAccount handles PATCH /api/v1/accounts/:id.
func (h *Handler) PatchAccount(c *gin.Context) {
	var patch entity.AccountPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patch payload: " + err.Error()})
		return
	}
	id := c.Param("id")
	if err := h.store.UpdateAccount(id, patch); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.persistAccounts()
	updated, _ := h.store.Account(id)
	c.JSON(http.StatusOK, updated)
}

// DeleteAccount handles DELETE /api/v1/accounts/:id.
func (h *Handler) DeleteAccount(c *gin.Context) {
	if err := h.store.RemoveAccount(c.Param("id")); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.persistAccounts()
	c.Status(http.StatusNoContent)
}

// GetPortfolio handles GET /api/v1/portfolio.
func (h *Handler) GetPortfolio(c *gin.Context) {
	snap := h.store.Snapshot()
	response := PortfolioResponse{
		Accounts:  snap.Accounts,
		Assets:    snap.Assets,
		Rows:      service.Aggregate(snap.Assets),
		Portfolio: snap.Portfolio,
	}
	if h.loader != nil {
		response.Loading = h.loader.States()
	}
	c.JSON(http.StatusOK, response)
}

// TriggerSync handles POST /api/v1/sync. The cycle runs asynchronously; the
// endpoint only acknowledges the request.
func (h *Handler) TriggerSync(c *gin.Context) {
	h.orchestrator.TriggerSync()
	c.JSON(http.StatusAccepted, gin.H{"status": "sync scheduled"})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeStoreError maps store errors onto HTTP status codes. A not-found reason
// is carried as a ValidationError on the id field.
func (h *Handler) writeStoreError(c *gin.Context, err error) {
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusBadRequest
		if verr.Field == "id" {
			status = http.StatusNotFound
			if strings.Contains(verr.Reason, "already exists") {
				status = http.StatusConflict
			}
		}
		c.JSON(status, gin.H{"error": verr.Error()})
		return
	}
	h.logger.Error("Unexpected store error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// persistAccounts mirrors the in-memory account list to durable storage after
// every successful mutation.
func (h *Handler) persistAccounts() {
	if h.repo == nil {
		return
	}
	if err := h.repo.Save(h.store.Accounts()); err != nil {
		h.logger.Error("Failed to persist accounts", zap.Error(err))
	}
}
