// Package store holds the in-memory portfolio state: tracked accounts, the
// flattened asset list, the symbol price cache and the derived aggregate. All
// mutations are synchronous single-step operations under one lock, so no
// cross-task locking is needed elsewhere.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

// Snapshot is the consistent read surface handed to the presentation layer.
// The asset list is always a complete snapshot from one finished sync cycle.
type Snapshot struct {
	Accounts  []entity.Account          `json:"accounts"`
	Assets    []entity.Asset            `json:"assets"`
	Portfolio entity.PortfolioAggregate `json:"portfolio"`
}

// Store is the account store. Aggregate recomputation is delegated to the
// injected aggregator so the derived projection stays a pure function of the
// asset list.
type Store struct {
	mu        sync.RWMutex
	accounts  []entity.Account
	assets    []entity.Asset
	prices    *gocache.Cache
	aggregate entity.PortfolioAggregate

	recompute func([]entity.Asset) entity.PortfolioAggregate
	changed   chan struct{}
	logger    *zap.Logger
}

// New creates an empty store. priceTTL bounds quote staleness; recompute
// derives the portfolio aggregate from an asset list.
func New(priceTTL time.Duration, recompute func([]entity.Asset) entity.PortfolioAggregate, logger *zap.Logger) *Store {
	return &Store{
		prices:    gocache.New(priceTTL, 2*priceTTL),
		recompute: recompute,
		changed:   make(chan struct{}, 1),
		logger:    logger.Named("Store"),
	}
}

// Changed signals when the set of connected accounts changes, so the
// orchestrator can run a cycle immediately. Notifications are coalesced.
func (s *Store) Changed() <-chan struct{} { return s.changed }

func (s *Store) notifyChanged() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// AddAccount validates, normalizes and inserts a new account.
func (s *Store) AddAccount(a entity.Account) error {
	entity.NormalizeAccount(&a)
	if err := entity.ValidateAccount(a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.ID == a.ID {
			return &entity.ValidationError{Field: "id", Reason: fmt.Sprintf("account %s already exists", a.ID)}
		}
	}
	s.accounts = append(s.accounts, a)
	s.logger.Info("Account added", zap.String("id", a.ID), zap.String("platform", string(a.Platform)))
	if a.Status == entity.StatusConnected {
		s.notifyChanged()
	}
	return nil
}

// UpdateAccount applies a partial update to an existing account.
func (s *Store) UpdateAccount(id string, patch entity.AccountPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return &entity.ValidationError{Field: "id", Reason: fmt.Sprintf("account %s not found", id)}
	}

	updated := s.accounts[idx]
	if patch.Label != nil {
		updated.Label = *patch.Label
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	if patch.Addresses != nil {
		updated.Addresses = patch.Addresses
	}
	if patch.DeclaredChains != nil {
		updated.DeclaredChains = patch.DeclaredChains
	}
	if patch.TrackedTokens != nil {
		updated.TrackedTokens = patch.TrackedTokens
	}
	entity.NormalizeAccount(&updated)
	if err := entity.ValidateAccount(updated); err != nil {
		return err
	}

	wasConnected := s.accounts[idx].Status == entity.StatusConnected
	s.accounts[idx] = updated
	if wasConnected != (updated.Status == entity.StatusConnected) {
		s.notifyChanged()
	}
	return nil
}

// SetAccountStatus records a sync outcome for an account. Unlike UpdateAccount
// it never signals a connected-set change: status flips between connected and
// error are sync results, not user edits, and must not retrigger a cycle.
func (s *Store) SetAccountStatus(id string, status entity.AccountStatus, syncedAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		return
	}
	s.accounts[idx].Status = status
	if syncedAt != nil {
		s.accounts[idx].LastSyncAt = syncedAt
	}
}

// RemoveAccount deletes an account and cascades deletion of every asset row
// referencing it, then recomputes the aggregate.
func (s *Store) RemoveAccount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return &entity.ValidationError{Field: "id", Reason: fmt.Sprintf("account %s not found", id)}
	}
	wasConnected := s.accounts[idx].Status == entity.StatusConnected
	s.accounts = append(s.accounts[:idx], s.accounts[idx+1:]...)

	kept := s.assets[:0]
	for _, asset := range s.assets {
		if asset.AccountID != id {
			kept = append(kept, asset)
		}
	}
	s.assets = kept
	s.aggregate = s.recompute(s.assets)

	s.logger.Info("Account removed", zap.String("id", id), zap.Int("remaining_assets", len(s.assets)))
	if wasConnected {
		s.notifyChanged()
	}
	return nil
}

// Account returns a copy of one account.
func (s *Store) Account(id string) (entity.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		return entity.Account{}, false
	}
	return s.accounts[idx], true
}

// Accounts returns a copy of the full account list.
func (s *Store) Accounts() []entity.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// ConnectedAccounts returns the accounts the orchestrator should sync.
func (s *Store) ConnectedAccounts() []entity.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.Account
	for _, a := range s.accounts {
		if a.Status == entity.StatusConnected || a.Status == entity.StatusError {
			// Errored accounts stay in the rotation so a recovered provider
			// clears the error on the next cycle.
			out = append(out, a)
		}
	}
	return out
}

// ReplaceAssets atomically swaps in the asset list produced by one finished
// sync cycle and recomputes the aggregate. Rows referencing unknown accounts
// are dropped; no partial state is ever visible.
func (s *Store) ReplaceAssets(assets []entity.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]struct{}, len(s.accounts))
	for _, a := range s.accounts {
		known[a.ID] = struct{}{}
	}

	next := make([]entity.Asset, 0, len(assets))
	for _, asset := range assets {
		if _, ok := known[asset.AccountID]; !ok {
			s.logger.Warn("Dropping asset row referencing unknown account",
				zap.String("asset", asset.ID), zap.String("account", asset.AccountID))
			continue
		}
		next = append(next, asset)
	}
	sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })

	s.assets = next
	s.aggregate = s.recompute(s.assets)
}

// Assets returns a copy of the current asset list.
func (s *Store) Assets() []entity.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// SetPrice merges a quote into the price cache, last write wins.
func (s *Store) SetPrice(symbol string, priceUSD float64) {
	s.prices.Set(symbol, priceUSD, gocache.DefaultExpiration)
}

// Price returns the cached quote for a symbol, if fresh.
func (s *Store) Price(symbol string) (float64, bool) {
	v, ok := s.prices.Get(symbol)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

// RecomputeAggregate rebuilds the derived portfolio projection from the
// current asset list.
func (s *Store) RecomputeAggregate() entity.PortfolioAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregate = s.recompute(s.assets)
	return s.aggregate
}

// Aggregate returns the last computed portfolio aggregate.
func (s *Store) Aggregate() entity.PortfolioAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aggregate
}

// Snapshot returns a consistent copy of accounts, assets and the aggregate.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Accounts:  make([]entity.Account, len(s.accounts)),
		Assets:    make([]entity.Asset, len(s.assets)),
		Portfolio: s.aggregate,
	}
	copy(snap.Accounts, s.accounts)
	copy(snap.Assets, s.assets)
	return snap
}

func (s *Store) indexOfLocked(id string) int {
	for i, a := range s.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}
